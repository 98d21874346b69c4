package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateShortCode(t *testing.T) {
	code := GenerateShortCode(8)
	assert.Len(t, code, 8)

	for _, char := range code {
		assert.True(t, strings.ContainsRune(charset, char))
	}

	assert.NotEqual(t, GenerateShortCode(12), GenerateShortCode(12))
	assert.True(t, ValidShortCode(code))
}

func TestValidShortCode(t *testing.T) {
	assert.True(t, ValidShortCode("abc123"))
	assert.True(t, ValidShortCode("My-Link_2"))
	assert.False(t, ValidShortCode(""))
	assert.False(t, ValidShortCode("has space"))
	assert.False(t, ValidShortCode("slash/code"))
	assert.False(t, ValidShortCode(strings.Repeat("a", 65)))
}

func TestGenerateAPIKey(t *testing.T) {
	key := GenerateAPIKey()

	assert.NotEmpty(t, key)
	_, err := uuid.Parse(key)
	assert.NoError(t, err)
}
