// Package web holds what the two front ends share: the embedded HTML pages,
// the page model, the multipart parsing for net/http handlers and the step
// that turns a processed upload into a status code and a page.
//
// The front ends themselves live in web/open (goji, no accounts) and
// web/secure (gin, login required).
package web
