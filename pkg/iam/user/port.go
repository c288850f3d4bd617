package user

import (
	"context"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

type UserRepository interface {
	Save(ctx context.Context, u User) error
	FindByID(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) (*User, error)

	// FindByEmail looks across tenants; emails are globally unique
	FindByEmail(ctx context.Context, email kernel.Email) (*User, error)

	UpdateLastLogin(ctx context.Context, id kernel.UserID) error
}
