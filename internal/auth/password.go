package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 64
	iterations = 210_000
)

// ErrInvalidInput indicates a missing or empty credential input.
var ErrInvalidInput = errors.New("invalid input")

// HashPassword derives a PBKDF2-SHA512 digest from the password using a
// freshly generated random salt. Two calls with the same password never
// produce the same digest.
func HashPassword(password string) (digest, salt []byte, err error) {
	if password == "" {
		return nil, nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
	}
	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}
	digest = pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha512.New)
	return digest, salt, nil
}

// VerifyPassword reports whether the password matches the stored digest and
// salt. The comparison is constant time.
func VerifyPassword(password string, digest, salt []byte) bool {
	if password == "" || len(digest) == 0 || len(salt) == 0 {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha512.New)
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}
