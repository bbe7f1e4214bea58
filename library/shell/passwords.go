package shell

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrHashingPasswordFailed is returned when bcrypt cannot hash a password, e.g. one longer than 72 bytes.
	ErrHashingPasswordFailed = errors.New("hashing the password failed")

	// ErrEmptyPassword is returned for empty passwords.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// PasswordHashCost is the bcrypt cost used for new hashes.
var PasswordHashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", errors.Join(ErrHashingPasswordFailed, err)
	}

	return string(hash), nil
}

// PasswordMatches compares password with a hash created by HashPassword.
func PasswordMatches(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
