package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository implements user.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

type userModel struct {
	ID           string         `db:"id"`
	TenantID     string         `db:"tenant_id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	CompanyID    sql.NullString `db:"company_id"`
	Scopes       pq.StringArray `db:"scopes"`
	Status       string         `db:"status"`
	LastLoginAt  *time.Time     `db:"last_login_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (m *userModel) toEntity() *user.User {
	u := &user.User{
		ID:           kernel.UserID(m.ID),
		TenantID:     kernel.TenantID(m.TenantID),
		Email:        kernel.Email(m.Email),
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
		Scopes:       []string(m.Scopes),
		Status:       user.UserStatus(m.Status),
		LastLoginAt:  m.LastLoginAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.CompanyID.Valid {
		id := kernel.CompanyID(m.CompanyID.String)
		u.CompanyID = &id
	}
	return u
}

func fromEntity(u user.User) userModel {
	m := userModel{
		ID:           u.ID.String(),
		TenantID:     u.TenantID.String(),
		Email:        string(u.Email.Normalize()),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Scopes:       pq.StringArray(u.Scopes),
		Status:       string(u.Status),
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.CompanyID != nil {
		m.CompanyID = sql.NullString{String: u.CompanyID.String(), Valid: true}
	}
	return m
}

const userColumns = `id, tenant_id, email, name, password_hash, role, company_id,
	scopes, status, last_login_at, created_at, updated_at`

// Save inserts or updates a user
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `) VALUES (
			:id, :tenant_id, :email, :name, :password_hash, :role, :company_id,
			:scopes, :status, :last_login_at, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			company_id = EXCLUDED.company_id,
			scopes = EXCLUDED.scopes,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(u)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return user.ErrUserAlreadyExists().WithDetail("email", u.Email)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID, tenantID kernel.TenantID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tenant_id = $2`

	var m userModel
	if err := r.db.GetContext(ctx, &m, query, id.String(), tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return m.toEntity(), nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email kernel.Email) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var m userModel
	if err := r.db.GetContext(ctx, &m, query, string(email.Normalize())); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return m.toEntity(), nil
}

func (r *PostgresUserRepository) UpdateLastLogin(ctx context.Context, id kernel.UserID) error {
	query := `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id.String()); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
