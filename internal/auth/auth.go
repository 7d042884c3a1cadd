// Package auth keeps the user accounts of the secured front end: a JSON file
// of users with argon2id password hashes, and signed, encrypted session
// cookies.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPasswordMismatch   = errors.New("auth: passwords do not match")
	ErrMissingCredentials = errors.New("auth: username and password required")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrUnauthorized       = errors.New("auth: unauthorized")
)

// Messages returned to the browser as plain text.
const (
	MsgPasswordMismatch   = "Your password and confirm password are not the same!"
	MsgMissingCredentials = "Username and password are required!"
	MsgUserExists         = "A user with that username already exists!"
	MsgUnauthorized       = "Username or Password is incorrect!"
)

// Message maps an auth error to the text shown to the user. Unknown errors
// get a generic message.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordMismatch
	case errors.Is(err, ErrMissingCredentials):
		return MsgMissingCredentials
	case errors.Is(err, ErrUserExists):
		return MsgUserExists
	case errors.Is(err, ErrUnauthorized):
		return MsgUnauthorized
	default:
		return "Something went wrong, please try again."
	}
}

// User is one account.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash []byte    `json:"password_hash"`
	Salt         []byte    `json:"salt"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists users.
type Store interface {
	// Get returns the user and whether it exists.
	Get(username string) (User, bool, error)

	// Create adds a user, failing with ErrUserExists if the name is taken.
	Create(u User) error
}

// Service implements signup and login on top of a Store.
type Service struct {
	store  Store
	params Params
	now    func() time.Time
}

// NewService returns a Service using DefaultParams.
func NewService(store Store) *Service {
	return &Service{store: store, params: DefaultParams, now: time.Now}
}

// WithParams returns a copy of s hashing with p. Tests use cheap parameters.
func (s *Service) WithParams(p Params) *Service {
	c := *s
	c.params = p
	return &c
}

// Signup creates an account. password2 is the confirmation field.
func (s *Service) Signup(username, email, password1, password2 string) (User, error) {
	username = strings.TrimSpace(username)
	if password1 != password2 {
		return User{}, ErrPasswordMismatch
	}
	if username == "" || password1 == "" {
		return User{}, ErrMissingCredentials
	}

	hash, salt, err := s.params.Hash(password1)
	if err != nil {
		return User{}, err
	}

	u := User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return User{}, err
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username and password.
func (s *Service) Authenticate(username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrUnauthorized
	}

	u, ok, err := s.store.Get(username)
	if err != nil {
		return User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !ok {
		// Same work as a real check, so unknown names take as long as wrong passwords.
		s.params.Verify(password, dummySalt, dummyHash)
		return User{}, ErrUnauthorized
	}
	if !s.params.Verify(password, u.Salt, u.PasswordHash) {
		return User{}, ErrUnauthorized
	}
	return u, nil
}
