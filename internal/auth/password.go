package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a director's plaintext password for storage, grounded
// on the teacher's tokenhash.go bcrypt usage for long-lived credentials.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
