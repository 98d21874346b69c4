package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// HashLinkPassword is the unsalted scheme existing link passwords are stored
// in: lower-case hex SHA-256 of the UTF-8 bytes.
func HashLinkPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// HashPassword produces a salted bcrypt hash.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HashWithScheme hashes a new link password with the configured scheme.
func HashWithScheme(scheme, password string) (string, error) {
	if scheme == SchemeBcrypt {
		return HashPassword(password)
	}
	return HashLinkPassword(password), nil
}

// VerifyLinkPassword accepts both stored formats, so links can move to bcrypt
// without invalidating old hashes.
func VerifyLinkPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return CheckPasswordHash(password, stored)
	}
	candidate := HashLinkPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(strings.ToLower(stored))) == 1
}
