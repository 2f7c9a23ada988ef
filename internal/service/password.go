package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordIterations = 100_000
	passwordKeyLength  = 32
	saltLength         = 16
)

// hashPassword derives a PBKDF2-SHA256 key. Salt and hash are stored base64
// encoded.
func hashPassword(password string, iterations int) (hash, salt string, err error) {
	saltBytes := make([]byte, saltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), saltBytes, iterations, passwordKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key), base64.StdEncoding.EncodeToString(saltBytes), nil
}

func verifyPassword(password, hash, salt string, iterations int) bool {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false
	}
	key := pbkdf2.Key([]byte(password), saltBytes, iterations, passwordKeyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}
