package sip2

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plaintext login password for storage in
// an Account's PasswordHash field. Used by the account-file loader at
// startup, never on the request path.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPasswordHash reports whether plaintext matches the stored
// bcrypt hash. A malformed or empty hash always fails closed.
func verifyPasswordHash(hash, plaintext string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
