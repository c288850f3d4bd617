package auth

import (
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const authContextKey = "auth_context"

// AuthContext is the authenticated principal of a request
type AuthContext struct {
	UserID    *kernel.UserID
	TenantID  kernel.TenantID
	Email     string
	Role      user.Role
	CompanyID *kernel.CompanyID
	Scopes    []string
}

func (a *AuthContext) HasScope(scope string) bool {
	return HasScope(a.Scopes, scope)
}

// IsCompanyBound reports whether the principal is confined to one company's subtree
func (a *AuthContext) IsCompanyBound() bool {
	return a.Role == user.RoleCompany && a.CompanyID != nil
}

// Actor identifies the principal in audit records
func (a *AuthContext) Actor() string {
	if a == nil || a.UserID == nil {
		return ""
	}
	return a.UserID.String()
}

func newAuthContext(c *TokenClaims) *AuthContext {
	id := c.UserID
	return &AuthContext{
		UserID:    &id,
		TenantID:  c.TenantID,
		Email:     c.Email,
		Role:      c.Role,
		CompanyID: c.CompanyID,
		Scopes:    c.Scopes,
	}
}

func SetAuthContext(c *fiber.Ctx, ac *AuthContext) {
	c.Locals(authContextKey, ac)
}

// GetAuthContext returns the principal stored by Authenticate
func GetAuthContext(c *fiber.Ctx) (*AuthContext, bool) {
	ac, ok := c.Locals(authContextKey).(*AuthContext)
	return ac, ok && ac != nil
}
