package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword applies a one-way bcrypt hash to the plaintext secret.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", &ValidationError{Field: "password", Rule: "required"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext secret with the stored hash. Any
// mismatch, including an empty hash, is reported as ErrInvalidCredentials.
func VerifyPassword(hash, password string) error {
	if hash == "" || password == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
