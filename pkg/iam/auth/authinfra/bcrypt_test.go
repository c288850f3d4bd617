package authinfra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	s := NewBcryptPasswordServiceWithCost(bcrypt.MinCost)
	hash, err := s.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, s.VerifyPassword(hash, "s3cret"))
	assert.False(t, s.VerifyPassword(hash, "wrong"))
	assert.False(t, s.VerifyPassword("not-a-hash", "s3cret"))
}
