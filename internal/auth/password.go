package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength matches the register request validation.
const MinPasswordLength = 8

const bcryptCost = 10

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}

// VerifyPassword reports whether password matches the stored hash. An empty
// hash never matches.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
