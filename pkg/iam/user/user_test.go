package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchScope(t *testing.T) {
	assert.True(t, MatchScope("*", "documents:review"))
	assert.True(t, MatchScope("documents:*", "documents:review"))
	assert.True(t, MatchScope("documents:read", "documents:read"))
	assert.False(t, MatchScope("documents:*", "documentsx:read"))
	assert.False(t, MatchScope("documents:read", "documents:write"))
}

func TestUserScopes(t *testing.T) {
	u := &User{Scopes: []string{"workers:*"}, Status: UserStatusActive, Role: RoleCompany}
	assert.True(t, u.HasAnyScope("companies:read", "workers:write"))
	assert.False(t, u.HasScope("companies:read"))
	assert.True(t, u.IsActive())
	assert.True(t, u.IsCompanyBound())
	assert.False(t, Role("ROOT").IsValid())
}
