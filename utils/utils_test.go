package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRollNumber(t *testing.T) {
	rollNumber, err := GenerateRollNumber()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^RN\d{6}$`), rollNumber)
}

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestTokenHashing(t *testing.T) {
	setTestConfig()

	token, err := GenerateSecureToken()
	require.NoError(t, err)

	hashed, err := HashToken(token)
	require.NoError(t, err)
	assert.NotEqual(t, token, hashed)

	assert.True(t, CompareToken(hashed, token))
	assert.False(t, CompareToken(hashed, "wrong-token"))
}

func TestPasswordHashing(t *testing.T) {
	setTestConfig()

	hashed, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	assert.True(t, ComparePassword(hashed, "s3cret-password"))
	assert.False(t, ComparePassword(hashed, "other-password"))
}
