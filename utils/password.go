package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash
func CheckPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
