package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_PlainValue(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, IsHash(string(hash)))
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "S3cret"))
}

func TestHashPassword_KeepsExistingHash(t *testing.T) {
	first, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	second, err := HashPassword(string(first), bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, CheckPassword(second, "s3cret"))
}

func TestIsHash(t *testing.T) {
	assert.False(t, IsHash(""))
	assert.False(t, IsHash("$2 but not a hash"))
	assert.False(t, IsHash("password"))
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	Wipe(b)
	assert.Equal(t, make([]byte, 6), b)
	Wipe(nil)
}
