package userinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// MemoryUserRepository keeps users in process, for local runs without Postgres
type MemoryUserRepository struct {
	mu   sync.RWMutex
	data map[kernel.UserID]user.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{data: make(map[kernel.UserID]user.User)}
}

func (r *MemoryUserRepository) Save(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := u.Email.Normalize()
	for id, existing := range r.data {
		if id != u.ID && existing.Email.Normalize() == email {
			return user.ErrUserAlreadyExists().WithDetail("email", u.Email)
		}
	}
	u.Email = email
	r.data[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id kernel.UserID, tenantID kernel.TenantID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.data[id]
	if !ok || u.TenantID != tenantID {
		return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email kernel.Email) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = email.Normalize()
	for _, u := range r.data {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, id kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.data[id]
	if !ok {
		return user.ErrUserNotFound().WithDetail("user_id", id.String())
	}
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	r.data[id] = u
	return nil
}
