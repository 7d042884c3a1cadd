package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltBytes = 16
	KeyBytes  = 32
)

// Params are argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follow the argon2id recommendation for interactive logins.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4}

var (
	dummySalt = make([]byte, SaltBytes)
	dummyHash = make([]byte, KeyBytes)
)

// Hash derives a key from password with a fresh random salt.
func (p Params) Hash(password string) (hash, salt []byte, err error) {
	salt = make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return p.derive(password, salt), salt, nil
}

// Verify reports whether password matches hash, in constant time.
func (p Params) Verify(password string, salt, hash []byte) bool {
	got := p.derive(password, salt)
	return subtle.ConstantTimeCompare(got, hash) == 1
}

func (p Params) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, KeyBytes)
}
