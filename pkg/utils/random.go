package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/google/uuid"
)

// Codes are case-sensitive, so both cases are drawn from.
const charset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// GenerateShortCode returns a random code of the given length.
func GenerateShortCode(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// ValidShortCode reports whether a caller supplied code can be used as-is.
func ValidShortCode(code string) bool {
	return shortCodePattern.MatchString(code)
}

// GenerateAPIKey returns a random UUID suitable as ADMIN_API_KEY.
func GenerateAPIKey() string {
	return uuid.NewString()
}
