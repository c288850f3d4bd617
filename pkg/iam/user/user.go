package user

import (
	"strings"
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// Role is the coarse profile a back-office user acts with
type Role string

const (
	RoleAdmin       Role = "ADMIN"       // Full access inside the tenant
	RoleCoordinator Role = "COORDINATOR" // Site safety coordinator
	RoleCompany     Role = "COMPANY"     // Contractor staff bound to one company
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleCompany:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type User struct {
	ID           kernel.UserID     `db:"id" json:"id"`
	TenantID     kernel.TenantID   `db:"tenant_id" json:"tenant_id"`
	Email        kernel.Email      `db:"email" json:"email"`
	Name         string            `db:"name" json:"name"`
	PasswordHash string            `db:"password_hash" json:"-"`
	Role         Role              `db:"role" json:"role"`
	CompanyID    *kernel.CompanyID `db:"company_id" json:"company_id,omitempty"`
	Scopes       []string          `db:"scopes" json:"scopes"`
	Status       UserStatus        `db:"status" json:"status"`
	LastLoginAt  *time.Time        `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsCompanyBound reports whether the user may only act inside one company's subtree
func (u *User) IsCompanyBound() bool {
	return u.Role == RoleCompany
}

// HasScope checks the user's extra scopes, honouring "*" and "area:*" wildcards
func (u *User) HasScope(scope string) bool {
	for _, s := range u.Scopes {
		if MatchScope(s, scope) {
			return true
		}
	}
	return false
}

func (u *User) HasAnyScope(scopes ...string) bool {
	for _, s := range scopes {
		if u.HasScope(s) {
			return true
		}
	}
	return false
}

// MatchScope reports whether granted covers required
func MatchScope(granted, required string) bool {
	if granted == "*" || granted == required {
		return true
	}
	if area, ok := strings.CutSuffix(granted, ":*"); ok {
		return strings.HasPrefix(required, area+":")
	}
	return false
}

func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}
