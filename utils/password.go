package utils

import "golang.org/x/crypto/bcrypt"

// passwordCost stays at bcrypt's default; raising it only affects hashes
// created afterwards, existing ones keep their recorded cost.
const passwordCost = bcrypt.DefaultCost

// HashPassword derives the storable bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
