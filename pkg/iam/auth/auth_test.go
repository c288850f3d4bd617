package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	byID map[kernel.UserID]*user.User
}

func (m *memUsers) Save(_ context.Context, u user.User) error {
	m.byID[u.ID] = &u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id kernel.UserID, tenantID kernel.TenantID) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok || u.TenantID != tenantID {
		return nil, user.ErrUserNotFound()
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email kernel.Email) (*user.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id kernel.UserID) error {
	if u, ok := m.byID[id]; ok {
		u.RecordLogin()
	}
	return nil
}

type AuthSuite struct {
	suite.Suite
	users  *memUsers
	tokens *auth.JWTService
	app    *fiber.App
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	pw := authinfra.NewBcryptPasswordServiceWithCost(bcrypt.MinCost)
	hash, err := pw.HashPassword("correct horse")
	s.Require().NoError(err)

	companyID := kernel.CompanyID("c-1")
	s.users = &memUsers{byID: map[kernel.UserID]*user.User{
		"u-admin": {ID: "u-admin", TenantID: "t1", Email: "admin@cae.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.UserStatusActive},
		"u-comp":  {ID: "u-comp", TenantID: "t1", Email: "ops@contrata.test", PasswordHash: hash, Role: user.RoleCompany, CompanyID: &companyID, Status: user.UserStatusActive},
		"u-off":   {ID: "u-off", TenantID: "t1", Email: "off@cae.test", PasswordHash: hash, Role: user.RoleCoordinator, Status: user.UserStatusSuspended},
	}}
	s.tokens = auth.NewJWTService("test-secret", time.Hour, "cae")

	mw := auth.NewAuthMiddleware(s.tokens)
	handlers := auth.NewAuthHandlers(s.tokens, s.users, pw)

	s.app = fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if e, ok := errx.As(err); ok {
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
		}
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).SendString(e.Message)
		}
		return c.SendStatus(http.StatusInternalServerError)
	}})
	handlers.RegisterRoutes(s.app, mw)
	s.app.Get("/review", mw.Authenticate(), mw.RequireScope(auth.ScopeDocumentsReview), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
}

func (s *AuthSuite) login(email, password string) *http.Response {
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	s.Require().NoError(err)
	return resp
}

func (s *AuthSuite) tokenFor(email string) string {
	resp := s.login(email, "correct horse")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var out auth.LoginResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	s.Equal("Bearer", out.TokenType)
	s.NotNil(out.User.LastLoginAt)
	return out.AccessToken
}

func (s *AuthSuite) get(path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	s.Require().NoError(err)
	return resp.StatusCode
}

func (s *AuthSuite) TestLoginAndMe() {
	token := s.tokenFor("ADMIN@cae.test ")
	s.Equal(http.StatusOK, s.get("/auth/me", token))
}

func (s *AuthSuite) TestLoginRejectsBadPassword() {
	s.Equal(http.StatusUnauthorized, s.login("admin@cae.test", "nope").StatusCode)
	s.Equal(http.StatusUnauthorized, s.login("ghost@cae.test", "correct horse").StatusCode)
}

func (s *AuthSuite) TestLoginRejectsSuspendedUser() {
	s.Equal(http.StatusForbidden, s.login("off@cae.test", "correct horse").StatusCode)
}

func (s *AuthSuite) TestScopesEnforced() {
	s.Equal(http.StatusUnauthorized, s.get("/review", ""))
	s.Equal(http.StatusUnauthorized, s.get("/review", "garbage"))
	s.Equal(http.StatusForbidden, s.get("/review", s.tokenFor("ops@contrata.test")))
	s.Equal(http.StatusOK, s.get("/review", s.tokenFor("admin@cae.test")))
}

func TestJWTRoundTrip(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Hour, "cae")
	companyID := kernel.CompanyID("c-9")

	token, exp, err := svc.GenerateAccessToken(auth.TokenClaims{
		UserID:    "u-1",
		TenantID:  "t-1",
		Email:     "a@b.test",
		Role:      user.RoleCompany,
		CompanyID: &companyID,
		Scopes:    []string{auth.ScopeWorkersAll},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, kernel.UserID("u-1"), claims.UserID)
	assert.Equal(t, kernel.TenantID("t-1"), claims.TenantID)
	assert.Equal(t, user.RoleCompany, claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, companyID, *claims.CompanyID)

	_, err = auth.NewJWTService("other", time.Hour, "cae").ValidateAccessToken(token)
	assert.True(t, errx.IsCode(err, auth.CodeInvalidToken))
}

func TestJWTExpired(t *testing.T) {
	svc := auth.NewJWTService("secret", -time.Minute, "cae")
	token, _, err := svc.GenerateAccessToken(auth.TokenClaims{UserID: "u-1", TenantID: "t-1"})
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestScopesFor(t *testing.T) {
	u := &user.User{Role: user.RoleCoordinator, Scopes: []string{auth.ScopeDocumentsRead, auth.ScopeDocumentsExpire}}
	scopes := auth.ScopesFor(u)
	assert.Contains(t, scopes, auth.ScopeDocumentsExpire)
	assert.Equal(t, len(auth.RoleScopes[user.RoleCoordinator])+1, len(scopes))

	assert.True(t, auth.HasScope(auth.ScopesFor(&user.User{Role: user.RoleAdmin}), auth.ScopeCompaniesStatus))
	assert.False(t, auth.HasScope(auth.ScopesFor(&user.User{Role: user.RoleCompany}), auth.ScopeDocumentsReview))
}
