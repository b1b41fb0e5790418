package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// prehash сводит пароль произвольной длины к 44 байтам base64(sha256(pw)),
// чтобы не упираться в ограничение bcrypt на 72 байта входа.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// HashPassword хэширует пароль: bcrypt(base64(sha256(password))).
func (c *Credentials) HashPassword(password string) (string, error) {
	const op = "credentials.password.HashPassword"

	hash, err := bcrypt.GenerateFromPassword(prehash(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// CheckPassword сравнивает пароль с хэшем.
func (c *Credentials) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}
