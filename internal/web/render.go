package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome   = "home"
	PageLogin  = "login"
	PageSignup = "signup"
)

// Page is the model every template renders.
type Page struct {
	Title string

	// User is the logged-in username; empty on the open front end.
	User string

	// Density is echoed back into the form.
	Density string

	// Result is the success message. It contains markup of our own making.
	Result template.HTML

	// Error is a user-facing error message.
	Error string

	// Preview is a data: URI of the contour preview.
	Preview template.URL
}

// Renderer executes the embedded pages.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageHome, PageLogin, PageSignup} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page.
func (r *Renderer) Render(w io.Writer, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if p.Title == "" {
		p.Title = titles[name]
	}
	return t.ExecuteTemplate(w, "layout", p)
}

var titles = map[string]string{
	PageHome:   "Estimate",
	PageLogin:  "Log in",
	PageSignup: "Sign up",
}
