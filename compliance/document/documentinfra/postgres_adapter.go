package documentinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDocumentRepository implements document.Repository using PostgreSQL
type PostgresDocumentRepository struct {
	db *sqlx.DB
}

// NewPostgresDocumentRepository creates a new PostgreSQL document repository
func NewPostgresDocumentRepository(db *sqlx.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{
		db: db,
	}
}

var _ document.Repository = (*PostgresDocumentRepository)(nil)

// ============================================================================
// Database Model
// ============================================================================

type documentModel struct {
	ID              string         `db:"id"`
	TenantID        string         `db:"tenant_id"`
	CompanyID       string         `db:"company_id"`
	OwnerType       string         `db:"owner_type"`
	OwnerID         string         `db:"owner_id"`
	Type            string         `db:"type"`
	FileName        string         `db:"file_name"`
	FilePath        string         `db:"file_path"`
	FileType        string         `db:"file_type"`
	FileSize        int64          `db:"file_size"`
	Status          string         `db:"status"`
	IssuedAt        sql.NullTime   `db:"issued_at"`
	ExpiresAt       sql.NullTime   `db:"expires_at"`
	Validation      []byte         `db:"validation"`
	Attempts        int            `db:"attempts"`
	LastError       string         `db:"last_error"`
	UploadedBy      string         `db:"uploaded_by"`
	ReviewedBy      sql.NullString `db:"reviewed_by"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at"`
	RejectionReason string         `db:"rejection_reason"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (m *documentModel) toEntity() (document.Document, error) {
	d := document.Document{
		ID:              kernel.DocumentID(m.ID),
		TenantID:        kernel.TenantID(m.TenantID),
		CompanyID:       kernel.CompanyID(m.CompanyID),
		OwnerType:       document.OwnerType(m.OwnerType),
		OwnerID:         m.OwnerID,
		Type:            document.DocumentType(m.Type),
		FileName:        m.FileName,
		FilePath:        m.FilePath,
		FileType:        m.FileType,
		FileSize:        m.FileSize,
		Status:          document.DocumentStatus(m.Status),
		IssuedAt:        timePtr(m.IssuedAt),
		ExpiresAt:       timePtr(m.ExpiresAt),
		Attempts:        m.Attempts,
		LastError:       m.LastError,
		UploadedBy:      m.UploadedBy,
		ReviewedAt:      timePtr(m.ReviewedAt),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ReviewedBy.Valid {
		reviewer := m.ReviewedBy.String
		d.ReviewedBy = &reviewer
	}
	if len(m.Validation) > 0 && string(m.Validation) != "null" {
		var v document.Validation
		if err := json.Unmarshal(m.Validation, &v); err != nil {
			return d, fmt.Errorf("failed to decode validation of document %s: %w", m.ID, err)
		}
		d.Validation = &v
	}
	return d, nil
}

func fromEntity(d *document.Document) (documentModel, error) {
	m := documentModel{
		ID:              d.ID.String(),
		TenantID:        d.TenantID.String(),
		CompanyID:       d.CompanyID.String(),
		OwnerType:       string(d.OwnerType),
		OwnerID:         d.OwnerID,
		Type:            string(d.Type),
		FileName:        d.FileName,
		FilePath:        d.FilePath,
		FileType:        d.FileType,
		FileSize:        d.FileSize,
		Status:          string(d.Status),
		IssuedAt:        nullTime(d.IssuedAt),
		ExpiresAt:       nullTime(d.ExpiresAt),
		Attempts:        d.Attempts,
		LastError:       d.LastError,
		UploadedBy:      d.UploadedBy,
		ReviewedAt:      nullTime(d.ReviewedAt),
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.ReviewedBy != nil {
		m.ReviewedBy = sql.NullString{String: *d.ReviewedBy, Valid: true}
	}
	if d.Validation != nil {
		data, err := json.Marshal(d.Validation)
		if err != nil {
			return m, fmt.Errorf("failed to encode validation: %w", err)
		}
		m.Validation = data
	}
	return m, nil
}

func toEntities(models []documentModel) ([]document.Document, error) {
	items := make([]document.Document, 0, len(models))
	for i := range models {
		d, err := models[i].toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}

const documentColumns = `id, tenant_id, company_id, owner_type, owner_id, type, file_name,
	file_path, file_type, file_size, status, issued_at, expires_at, validation, attempts,
	last_error, uploaded_by, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

// ============================================================================
// Repository Implementation
// ============================================================================

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, d *document.Document) error {
	m, err := fromEntity(d)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (` + documentColumns + `) VALUES (
			:id, :tenant_id, :company_id, :owner_type, :owner_id, :type, :file_name,
			:file_path, :file_type, :file_size, :status, :issued_at, :expires_at, :validation, :attempts,
			:last_error, :uploaded_by, :reviewed_by, :reviewed_at, :rejection_reason, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// Update updates an existing document
func (r *PostgresDocumentRepository) Update(ctx context.Context, d *document.Document) error {
	m, err := fromEntity(d)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents SET
			status = :status,
			issued_at = :issued_at,
			expires_at = :expires_at,
			validation = :validation,
			attempts = :attempts,
			last_error = :last_error,
			reviewed_by = :reviewed_by,
			reviewed_at = :reviewed_at,
			rejection_reason = :rejection_reason,
			updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id
	`
	result, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return document.ErrDocumentNotFound()
	}
	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (*document.Document, error) {
	var model documentModel
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND tenant_id = $2`
	if err := r.db.GetContext(ctx, &model, query, id.String(), tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrDocumentNotFound()
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	d, err := model.toEntity()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List retrieves documents with filters and pagination
func (r *PostgresDocumentRepository) List(ctx context.Context, tenantID kernel.TenantID, req document.ListDocumentsRequest) (*kernel.Paginated[document.Document], error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID.String()}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if !req.IncludeOld {
		add("status <> $%d", string(document.StatusSuperseded))
	}
	if req.CompanyID != nil {
		add("company_id = $%d", req.CompanyID.String())
	}
	if req.CompanyIDs != nil {
		ids := make([]string, 0, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			ids = append(ids, id.String())
		}
		add("company_id = ANY($%d)", pq.Array(ids))
	}
	if req.OwnerType != "" {
		add("owner_type = $%d", string(req.OwnerType))
	}
	if req.OwnerID != "" {
		add("owner_id = $%d", req.OwnerID)
	}
	if req.Type != "" {
		add("type = $%d", string(req.Type))
	}
	if req.Status != "" {
		add("status = $%d", string(req.Status))
	}
	if req.ExpiringBefore != nil {
		add("expires_at < $%d", *req.ExpiringBefore)
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM documents WHERE `+whereSQL, args...); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	p := req.Pagination.Sanitize()
	orderBy, ok := document.SortColumns[p.OrderBy]
	if !ok {
		orderBy = "created_at"
	}

	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY %s %s NULLS LAST, id LIMIT $%d OFFSET $%d`,
		documentColumns, whereSQL, orderBy, p.OrderDir, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	var models []documentModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	items, err := toEntities(models)
	if err != nil {
		return nil, err
	}
	return kernel.NewPaginated(items, p.Page, p.PageSize, total), nil
}

// ListCurrentByOwner returns the non-superseded documents of an owner
func (r *PostgresDocumentRepository) ListCurrentByOwner(ctx context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) ([]document.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documents
		WHERE tenant_id = $1 AND owner_type = $2 AND owner_id = $3 AND status <> $4
		ORDER BY created_at
	`
	var models []documentModel
	if err := r.db.SelectContext(ctx, &models, query,
		tenantID.String(), string(ownerType), ownerID, string(document.StatusSuperseded)); err != nil {
		return nil, fmt.Errorf("failed to list owner documents: %w", err)
	}
	return toEntities(models)
}

// ListExpirable returns VALID documents of any tenant past their expiry date
func (r *PostgresDocumentRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]document.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documents
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3
	`
	var models []documentModel
	if err := r.db.SelectContext(ctx, &models, query, string(document.StatusValid), now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expirable documents: %w", err)
	}
	return toEntities(models)
}

// CountByStatus counts a tenant's documents per status
func (r *PostgresDocumentRepository) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[document.DocumentStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM documents WHERE tenant_id = $1 GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query, tenantID.String()); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	counts := make(map[document.DocumentStatus]int, len(rows))
	for _, row := range rows {
		counts[document.DocumentStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// CountExpiringBetween counts VALID documents expiring in [from, to)
func (r *PostgresDocumentRepository) CountExpiringBetween(ctx context.Context, tenantID kernel.TenantID, from, to time.Time) (int, error) {
	var n int
	query := `
		SELECT COUNT(*) FROM documents
		WHERE tenant_id = $1 AND status = $2 AND expires_at >= $3 AND expires_at < $4
	`
	if err := r.db.GetContext(ctx, &n, query, tenantID.String(), string(document.StatusValid), from, to); err != nil {
		return 0, fmt.Errorf("failed to count expiring documents: %w", err)
	}
	return n, nil
}
