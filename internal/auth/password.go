package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt cost factor for password hashing.
const hashCost = 10

// ErrEmptyPassword is returned when an empty plaintext is presented for hashing.
var ErrEmptyPassword = errors.New("password is required")

// HashPassword hashes a plaintext password with bcrypt. The salt is generated
// per call and embedded in the output.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// A mismatch is not an error; it simply returns false.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
