package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Email    kernel.Email `json:"email"`
	Password string       `json:"password"`
}

// LoginResponse is everything a client keeps for its session
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *user.User `json:"user"`
}

type AuthHandlers struct {
	tokenService TokenService
	userRepo     user.UserRepository
	passwords    PasswordService
}

func NewAuthHandlers(tokenService TokenService, userRepo user.UserRepository, passwords PasswordService) *AuthHandlers {
	return &AuthHandlers{
		tokenService: tokenService,
		userRepo:     userRepo,
		passwords:    passwords,
	}
}

// Authenticate checks credentials and issues an access token
func (h *AuthHandlers) Authenticate(ctx context.Context, email kernel.Email, password string) (*LoginResponse, error) {
	u, err := h.userRepo.FindByEmail(ctx, email.Normalize())
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			return nil, user.ErrInvalidCredentials()
		}
		return nil, err
	}
	if !h.passwords.VerifyPassword(u.PasswordHash, password) {
		return nil, user.ErrInvalidCredentials()
	}
	if !u.IsActive() {
		return nil, user.ErrUserSuspended().WithDetail("user_id", u.ID.String())
	}

	token, expiresAt, err := h.tokenService.GenerateAccessToken(TokenClaims{
		UserID:    u.ID,
		TenantID:  u.TenantID,
		Email:     string(u.Email),
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Scopes:    ScopesFor(u),
	})
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.UpdateLastLogin(ctx, u.ID); err != nil {
		logx.Warnf("failed to record login for user %s: %v", u.ID, err)
	}
	u.RecordLogin()

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        u,
	}, nil
}

// Login
// POST /auth/login
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
	}

	resp, err := h.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Me returns the authenticated user
// GET /auth/me
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	ac, ok := GetAuthContext(c)
	if !ok {
		return ErrMissingToken()
	}

	u, err := h.userRepo.FindByID(c.Context(), *ac.UserID, ac.TenantID)
	if err != nil {
		var e *errx.Error
		if errors.As(err, &e) {
			return e
		}
		return errx.Wrap(err, "failed to load current user", errx.TypeInternal)
	}
	return c.JSON(fiber.Map{
		"user":   u,
		"scopes": ac.Scopes,
	})
}

// RegisterRoutes registers /auth routes
func (h *AuthHandlers) RegisterRoutes(app *fiber.App, authMiddleware *TokenMiddleware) {
	api := app.Group("/auth")
	api.Post("/login", h.Login)
	api.Get("/me", authMiddleware.Authenticate(), h.Me)
}
