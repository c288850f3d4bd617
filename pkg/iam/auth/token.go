package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeMissingToken      = ErrRegistry.Register("MISSING_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Missing authorization token")
	CodeInvalidToken      = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeInsufficientScope = ErrRegistry.Register("INSUFFICIENT_SCOPE", errx.TypeAuthorization, http.StatusForbidden, "Insufficient permissions")
	CodeOutsideCompany    = ErrRegistry.Register("OUTSIDE_COMPANY", errx.TypeAuthorization, http.StatusForbidden, "Resource belongs to a company outside your subcontracting chain")
)

func ErrMissingToken() *errx.Error {
	return ErrRegistry.New(CodeMissingToken)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrInsufficientScope() *errx.Error {
	return ErrRegistry.New(CodeInsufficientScope)
}

func ErrOutsideCompany() *errx.Error {
	return ErrRegistry.New(CodeOutsideCompany)
}

// TokenClaims is what an access token carries
type TokenClaims struct {
	UserID    kernel.UserID     `json:"user_id"`
	TenantID  kernel.TenantID   `json:"tenant_id"`
	Email     string            `json:"email"`
	Role      user.Role         `json:"role"`
	CompanyID *kernel.CompanyID `json:"company_id,omitempty"`
	Scopes    []string          `json:"scopes"`
	ExpiresAt time.Time         `json:"-"`
}

type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, time.Time, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

type jwtClaims struct {
	TenantID  string   `json:"tenant_id"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	CompanyID string   `json:"company_id,omitempty"`
	Scopes    []string `json:"scopes"`
	jwt.RegisteredClaims
}

// JWTService signs HS256 access tokens
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

var _ TokenService = (*JWTService)(nil)

func NewJWTService(secret string, ttl time.Duration, issuer string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

func (s *JWTService) GenerateAccessToken(claims TokenClaims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	c := jwtClaims{
		TenantID: claims.TenantID.String(),
		Email:    claims.Email,
		Role:     string(claims.Role),
		Scopes:   claims.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if claims.CompanyID != nil {
		c.CompanyID = claims.CompanyID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errx.Wrap(err, "failed to sign access token", errx.TypeInternal)
	}
	return token, expiresAt, nil
}

func (s *JWTService) ValidateAccessToken(token string) (*TokenClaims, error) {
	var c jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken().WithCause(err)
	}

	claims := &TokenClaims{
		UserID:   kernel.UserID(c.Subject),
		TenantID: kernel.TenantID(c.TenantID),
		Email:    c.Email,
		Role:     user.Role(c.Role),
		Scopes:   c.Scopes,
	}
	if c.CompanyID != "" {
		id := kernel.CompanyID(c.CompanyID)
		claims.CompanyID = &id
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims, nil
}
