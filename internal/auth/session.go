package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "seed_session"

type session struct {
	Username string `json:"u"`
	IssuedAt int64  `json:"iat"`
}

// Sessions issues and reads login cookies. The cookie value is signed and,
// with a block key, encrypted.
type Sessions struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewSessions returns a Sessions using the given keys. A nil hashKey or
// blockKey is replaced by a random one, which invalidates sessions on
// restart.
func NewSessions(hashKey, blockKey []byte, maxAge time.Duration, secure bool) *Sessions {
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if blockKey == nil {
		blockKey = securecookie.GenerateRandomKey(32)
	}

	codec := securecookie.New(hashKey, blockKey).MaxAge(int(maxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Sessions{codec: codec, maxAge: maxAge, secure: secure}
}

// Issue sets a session cookie for username.
func (s *Sessions) Issue(w http.ResponseWriter, username string) error {
	value, err := s.codec.Encode(SessionCookie, session{Username: username, IssuedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Username returns the logged-in user, or ErrUnauthorized when the request
// has no valid session cookie.
func (s *Sessions) Username(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", ErrUnauthorized
	}

	var sess session
	if err := s.codec.Decode(SessionCookie, c.Value, &sess); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if sess.Username == "" {
		return "", ErrUnauthorized
	}
	return sess.Username, nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
