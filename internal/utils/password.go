// internal/utils/password.go
package utils

import "golang.org/x/crypto/bcrypt"

// PasswordHashCost is the bcrypt work factor. Tests lower it.
var PasswordHashCost = 14

// MinPasswordLength is the shortest password accepted on change.
const MinPasswordLength = 8

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
