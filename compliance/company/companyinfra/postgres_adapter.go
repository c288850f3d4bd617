package companyinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresCompanyRepository implements company.Repository using PostgreSQL
type PostgresCompanyRepository struct {
	db *sqlx.DB
}

// NewPostgresCompanyRepository creates a new PostgreSQL company repository
func NewPostgresCompanyRepository(db *sqlx.DB) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{
		db: db,
	}
}

// ============================================================================
// Database Model
// ============================================================================

type companyModel struct {
	ID        string         `db:"id"`
	TenantID  string         `db:"tenant_id"`
	ParentID  sql.NullString `db:"parent_id"`
	Name      string         `db:"name"`
	TaxID     string         `db:"tax_id"`
	Email     string         `db:"email"`
	Phone     string         `db:"phone"`
	Address   string         `db:"address"`
	Activity  string         `db:"activity"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (m *companyModel) toEntity() company.Company {
	c := company.Company{
		ID:        kernel.CompanyID(m.ID),
		TenantID:  kernel.TenantID(m.TenantID),
		Name:      kernel.CompanyName(m.Name),
		TaxID:     kernel.TaxID(m.TaxID),
		Email:     kernel.Email(m.Email),
		Phone:     kernel.Phone(m.Phone),
		Address:   kernel.Address(m.Address),
		Activity:  m.Activity,
		Status:    company.CompanyStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ParentID.Valid {
		parent := kernel.CompanyID(m.ParentID.String)
		c.ParentID = &parent
	}
	return c
}

func fromEntity(c *company.Company) companyModel {
	m := companyModel{
		ID:        c.ID.String(),
		TenantID:  c.TenantID.String(),
		Name:      string(c.Name),
		TaxID:     c.TaxID.String(),
		Email:     string(c.Email),
		Phone:     string(c.Phone),
		Address:   string(c.Address),
		Activity:  c.Activity,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentID != nil {
		m.ParentID = sql.NullString{String: c.ParentID.String(), Valid: true}
	}
	return m
}

const companyColumns = `id, tenant_id, parent_id, name, tax_id, email, phone,
	address, activity, status, created_at, updated_at`

// ============================================================================
// Repository Implementation
// ============================================================================

// Create creates a new company
func (r *PostgresCompanyRepository) Create(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `) VALUES (
			:id, :tenant_id, :parent_id, :name, :tax_id, :email, :phone,
			:address, :activity, :status, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(c)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation on (tenant_id, tax_id)
				return company.ErrCompanyAlreadyExists().WithDetail("tax_id", c.TaxID.String())
			case "23503": // foreign_key_violation on parent_id
				return company.ErrParentNotFound()
			}
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// Update updates an existing company
func (r *PostgresCompanyRepository) Update(ctx context.Context, c *company.Company) error {
	query := `
		UPDATE companies SET
			parent_id = :parent_id,
			name = :name,
			email = :email,
			phone = :phone,
			address = :address,
			activity = :activity,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id
	`
	result, err := r.db.NamedExecContext(ctx, query, fromEntity(c))
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return company.ErrCompanyNotFound()
	}
	return nil
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID) (*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND tenant_id = $2`
	return r.getOne(ctx, query, id.String(), tenantID.String())
}

// GetByTaxID retrieves a company by its normalized CIF
func (r *PostgresCompanyRepository) GetByTaxID(ctx context.Context, tenantID kernel.TenantID, taxID kernel.TaxID) (*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tax_id = $1 AND tenant_id = $2`
	return r.getOne(ctx, query, taxID.Normalize().String(), tenantID.String())
}

func (r *PostgresCompanyRepository) getOne(ctx context.Context, query string, args ...any) (*company.Company, error) {
	var model companyModel
	if err := r.db.GetContext(ctx, &model, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, company.ErrCompanyNotFound()
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	c := model.toEntity()
	return &c, nil
}

// List retrieves companies with filters and pagination
func (r *PostgresCompanyRepository) List(ctx context.Context, tenantID kernel.TenantID, req company.ListCompaniesRequest) (*kernel.Paginated[company.Company], error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID.String()}

	if q := strings.TrimSpace(req.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR tax_id ILIKE $%d)", len(args), len(args)))
	}
	if req.Status != "" {
		args = append(args, string(req.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.ParentID != nil {
		args = append(args, req.ParentID.String())
		where = append(where, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	if req.IDs != nil {
		ids := make([]string, 0, len(req.IDs))
		for _, id := range req.IDs {
			ids = append(ids, id.String())
		}
		args = append(args, pq.Array(ids))
		where = append(where, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM companies WHERE `+whereSQL, args...); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	p := req.Pagination.Sanitize()
	orderBy, ok := company.SortColumns[p.OrderBy]
	if !ok {
		orderBy = "created_at"
	}

	query := fmt.Sprintf(`SELECT %s FROM companies WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		companyColumns, whereSQL, orderBy, p.OrderDir, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	var models []companyModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	items := make([]company.Company, 0, len(models))
	for i := range models {
		items = append(items, models[i].toEntity())
	}
	return kernel.NewPaginated(items, p.Page, p.PageSize, total), nil
}

// ListAll retrieves every company of a tenant
func (r *PostgresCompanyRepository) ListAll(ctx context.Context, tenantID kernel.TenantID) ([]company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 ORDER BY name`

	var models []companyModel
	if err := r.db.SelectContext(ctx, &models, query, tenantID.String()); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	items := make([]company.Company, 0, len(models))
	for i := range models {
		items = append(items, models[i].toEntity())
	}
	return items, nil
}

// CountByStatus counts a tenant's companies per status
func (r *PostgresCompanyRepository) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[company.CompanyStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM companies WHERE tenant_id = $1 GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query, tenantID.String()); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	counts := make(map[company.CompanyStatus]int, len(rows))
	for _, row := range rows {
		counts[company.CompanyStatus(row.Status)] = row.Count
	}
	return counts, nil
}
