package workerinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/taxid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresWorkerRepository implements worker.Repository using PostgreSQL
type PostgresWorkerRepository struct {
	db *sqlx.DB
}

// NewPostgresWorkerRepository creates a new PostgreSQL worker repository
func NewPostgresWorkerRepository(db *sqlx.DB) *PostgresWorkerRepository {
	return &PostgresWorkerRepository{
		db: db,
	}
}

// ============================================================================
// Database Model
// ============================================================================

type workerModel struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	CompanyID    string    `db:"company_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PersonID     string    `db:"person_id"`
	PersonIDKind string    `db:"person_id_kind"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	JobPosition  string    `db:"job_position"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (m *workerModel) toEntity() worker.Worker {
	return worker.Worker{
		ID:           kernel.WorkerID(m.ID),
		TenantID:     kernel.TenantID(m.TenantID),
		CompanyID:    kernel.CompanyID(m.CompanyID),
		FirstName:    kernel.FirstName(m.FirstName),
		LastName:     kernel.LastName(m.LastName),
		PersonID:     kernel.PersonID(m.PersonID),
		PersonIDKind: taxid.Kind(m.PersonIDKind),
		Email:        kernel.Email(m.Email),
		Phone:        kernel.Phone(m.Phone),
		JobPosition:  kernel.JobPosition(m.JobPosition),
		Status:       worker.WorkerStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromEntity(w *worker.Worker) workerModel {
	return workerModel{
		ID:           w.ID.String(),
		TenantID:     w.TenantID.String(),
		CompanyID:    w.CompanyID.String(),
		FirstName:    string(w.FirstName),
		LastName:     string(w.LastName),
		PersonID:     w.PersonID.String(),
		PersonIDKind: w.PersonIDKind.String(),
		Email:        string(w.Email),
		Phone:        string(w.Phone),
		JobPosition:  string(w.JobPosition),
		Status:       string(w.Status),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

const workerColumns = `id, tenant_id, company_id, first_name, last_name, person_id,
	person_id_kind, email, phone, job_position, status, created_at, updated_at`

// ============================================================================
// Repository Implementation
// ============================================================================

// Create creates a new worker
func (r *PostgresWorkerRepository) Create(ctx context.Context, w *worker.Worker) error {
	query := `
		INSERT INTO workers (` + workerColumns + `) VALUES (
			:id, :tenant_id, :company_id, :first_name, :last_name, :person_id,
			:person_id_kind, :email, :phone, :job_position, :status, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(w)); err != nil {
		if isUniqueViolation(err) {
			return worker.ErrPersonIDAlreadyExists().WithDetail("person_id", w.PersonID.Mask())
		}
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

// Update updates an existing worker
func (r *PostgresWorkerRepository) Update(ctx context.Context, w *worker.Worker) error {
	query := `
		UPDATE workers SET
			first_name = :first_name,
			last_name = :last_name,
			person_id = :person_id,
			person_id_kind = :person_id_kind,
			email = :email,
			phone = :phone,
			job_position = :job_position,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id
	`
	result, err := r.db.NamedExecContext(ctx, query, fromEntity(w))
	if err != nil {
		if isUniqueViolation(err) {
			return worker.ErrPersonIDAlreadyExists().WithDetail("person_id", w.PersonID.Mask())
		}
		return fmt.Errorf("failed to update worker: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return worker.ErrWorkerNotFound()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByID retrieves a worker by ID
func (r *PostgresWorkerRepository) GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*worker.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1 AND tenant_id = $2`
	return r.getOne(ctx, query, id.String(), tenantID.String())
}

// GetByPersonID retrieves a worker by normalized DNI/NIE
func (r *PostgresWorkerRepository) GetByPersonID(ctx context.Context, tenantID kernel.TenantID, personID kernel.PersonID) (*worker.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE person_id = $1 AND tenant_id = $2`
	return r.getOne(ctx, query, personID.Normalize().String(), tenantID.String())
}

func (r *PostgresWorkerRepository) getOne(ctx context.Context, query string, args ...any) (*worker.Worker, error) {
	var model workerModel
	if err := r.db.GetContext(ctx, &model, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, worker.ErrWorkerNotFound()
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	w := model.toEntity()
	return &w, nil
}

// Delete removes a worker
func (r *PostgresWorkerRepository) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workers WHERE id = $1 AND tenant_id = $2`, id.String(), tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to delete worker: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return worker.ErrWorkerNotFound()
	}
	return nil
}

// List retrieves workers with filters and pagination
func (r *PostgresWorkerRepository) List(ctx context.Context, tenantID kernel.TenantID, req worker.ListWorkersRequest) (*kernel.Paginated[worker.Worker], error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID.String()}

	if q := strings.TrimSpace(req.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(first_name || ' ' || last_name ILIKE $%d OR person_id ILIKE $%d)", len(args), len(args)))
	}
	if req.Status != "" {
		args = append(args, string(req.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.CompanyID != nil {
		args = append(args, req.CompanyID.String())
		where = append(where, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if req.CompanyIDs != nil {
		ids := make([]string, 0, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			ids = append(ids, id.String())
		}
		args = append(args, pq.Array(ids))
		where = append(where, fmt.Sprintf("company_id = ANY($%d)", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM workers WHERE `+whereSQL, args...); err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}

	p := req.Pagination.Sanitize()
	orderBy, ok := worker.SortColumns[p.OrderBy]
	if !ok {
		orderBy = "created_at"
	}

	query := fmt.Sprintf(`SELECT %s FROM workers WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		workerColumns, whereSQL, orderBy, p.OrderDir, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	var models []workerModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	items := make([]worker.Worker, 0, len(models))
	for i := range models {
		items = append(items, models[i].toEntity())
	}
	return kernel.NewPaginated(items, p.Page, p.PageSize, total), nil
}

// CountByCompany returns total and active headcount of a company
func (r *PostgresWorkerRepository) CountByCompany(ctx context.Context, tenantID kernel.TenantID, companyID kernel.CompanyID) (int, int, error) {
	var row struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active
		FROM workers
		WHERE tenant_id = $1 AND company_id = $2
	`
	if err := r.db.GetContext(ctx, &row, query, tenantID.String(), companyID.String()); err != nil {
		return 0, 0, fmt.Errorf("failed to count workers: %w", err)
	}
	return row.Total, row.Active, nil
}

// CountByStatus counts a tenant's workers per status
func (r *PostgresWorkerRepository) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[worker.WorkerStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM workers WHERE tenant_id = $1 GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query, tenantID.String()); err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}

	counts := make(map[worker.WorkerStatus]int, len(rows))
	for _, row := range rows {
		counts[worker.WorkerStatus(row.Status)] = row.Count
	}
	return counts, nil
}
