// Package security contains everything related to the security of user data
package security

import "golang.org/x/crypto/bcrypt"

type PasswordHash struct {
	Cost int
}

func New() *PasswordHash {
	return &PasswordHash{
		Cost: 12,
	}
}

func (p *PasswordHash) GenerateFromPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), p.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPasswd compares a password pw with the stored bcrypt hash h
func (p *PasswordHash) VerifyPasswd(pw, h string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(pw)) == nil
}
