package auth

import "golang.org/x/crypto/bcrypt"

// CheckAdminSecret compares a presented admin secret against its configured
// bcrypt hash. An empty hash disables the admin surface entirely.
func CheckAdminSecret(hash, secret string) bool {
	if hash == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// HashAdminSecret produces a bcrypt hash for configuration.
func HashAdminSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
