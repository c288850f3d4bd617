package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenMiddleware authenticates bearer tokens and enforces scopes
type TokenMiddleware struct {
	tokenService TokenService
}

func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{tokenService: tokenService}
}

// Authenticate validates the Authorization header and stores the AuthContext
func (m *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return ErrMissingToken()
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return ErrInvalidToken().WithDetail("reason", "expected Bearer token")
		}

		claims, err := m.tokenService.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			return err
		}

		SetAuthContext(c, newAuthContext(claims))
		return c.Next()
	}
}

// RequireScope lets the request through when any of scopes is granted
func (m *TokenMiddleware) RequireScope(scopes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := GetAuthContext(c)
		if !ok {
			return ErrMissingToken()
		}
		for _, s := range scopes {
			if ac.HasScope(s) {
				return c.Next()
			}
		}
		return ErrInsufficientScope().WithDetail("required_scopes", scopes)
	}
}
