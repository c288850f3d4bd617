package accessinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAccessRepository implements access.Repository using PostgreSQL.
// Logs are append-only; there is no update.
type PostgresAccessRepository struct {
	db *sqlx.DB
}

func NewPostgresAccessRepository(db *sqlx.DB) *PostgresAccessRepository {
	return &PostgresAccessRepository{
		db: db,
	}
}

// ============================================================================
// Database Model
// ============================================================================

type accessLogModel struct {
	ID         string         `db:"id"`
	TenantID   string         `db:"tenant_id"`
	SiteID     string         `db:"site_id"`
	WorkerID   sql.NullString `db:"worker_id"`
	CompanyID  sql.NullString `db:"company_id"`
	PersonID   string         `db:"person_id"`
	Direction  string         `db:"direction"`
	Result     string         `db:"result"`
	DenyReason string         `db:"deny_reason"`
	Missing    pq.StringArray `db:"missing"`
	OccurredAt time.Time      `db:"occurred_at"`
	RecordedBy string         `db:"recorded_by"`
}

func (m *accessLogModel) toEntity() access.AccessLog {
	l := access.AccessLog{
		ID:         kernel.AccessLogID(m.ID),
		TenantID:   kernel.TenantID(m.TenantID),
		SiteID:     kernel.SiteID(m.SiteID),
		PersonID:   m.PersonID,
		Direction:  access.Direction(m.Direction),
		Result:     access.Result(m.Result),
		DenyReason: access.DenyReason(m.DenyReason),
		OccurredAt: m.OccurredAt,
		RecordedBy: m.RecordedBy,
	}
	if m.WorkerID.Valid {
		id := kernel.WorkerID(m.WorkerID.String)
		l.WorkerID = &id
	}
	if m.CompanyID.Valid {
		id := kernel.CompanyID(m.CompanyID.String)
		l.CompanyID = &id
	}
	for _, t := range m.Missing {
		l.Missing = append(l.Missing, document.DocumentType(t))
	}
	return l
}

func fromEntity(l *access.AccessLog) accessLogModel {
	m := accessLogModel{
		ID:         l.ID.String(),
		TenantID:   l.TenantID.String(),
		SiteID:     l.SiteID.String(),
		PersonID:   l.PersonID,
		Direction:  string(l.Direction),
		Result:     string(l.Result),
		DenyReason: string(l.DenyReason),
		Missing:    pq.StringArray{},
		OccurredAt: l.OccurredAt,
		RecordedBy: l.RecordedBy,
	}
	if l.WorkerID != nil {
		m.WorkerID = sql.NullString{String: l.WorkerID.String(), Valid: true}
	}
	if l.CompanyID != nil {
		m.CompanyID = sql.NullString{String: l.CompanyID.String(), Valid: true}
	}
	for _, t := range l.Missing {
		m.Missing = append(m.Missing, string(t))
	}
	return m
}

const accessColumns = `id, tenant_id, site_id, worker_id, company_id, person_id,
	direction, result, deny_reason, missing, occurred_at, recorded_by`

// ============================================================================
// Repository Implementation
// ============================================================================

func (r *PostgresAccessRepository) Create(ctx context.Context, l *access.AccessLog) error {
	query := `
		INSERT INTO access_logs (` + accessColumns + `) VALUES (
			:id, :tenant_id, :site_id, :worker_id, :company_id, :person_id,
			:direction, :result, :deny_reason, :missing, :occurred_at, :recorded_by
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(l)); err != nil {
		return fmt.Errorf("failed to create access log: %w", err)
	}
	return nil
}

func (r *PostgresAccessRepository) GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.AccessLogID) (*access.AccessLog, error) {
	var model accessLogModel
	query := `SELECT ` + accessColumns + ` FROM access_logs WHERE id = $1 AND tenant_id = $2`
	if err := r.db.GetContext(ctx, &model, query, id.String(), tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, access.ErrAccessLogNotFound()
		}
		return nil, fmt.Errorf("failed to get access log: %w", err)
	}
	l := model.toEntity()
	return &l, nil
}

func (r *PostgresAccessRepository) List(ctx context.Context, tenantID kernel.TenantID, req access.ListAccessLogsRequest) (*kernel.Paginated[access.AccessLog], error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID.String()}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if req.SiteID != nil {
		add("site_id = $%d", req.SiteID.String())
	}
	if req.WorkerID != nil {
		add("worker_id = $%d", req.WorkerID.String())
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
	if req.Direction != "" {
		add("direction = $%d", string(req.Direction))
	}
	if req.Result != "" {
		add("result = $%d", string(req.Result))
	}
	if req.From != nil {
		add("occurred_at >= $%d", *req.From)
	}
	if req.To != nil {
		add("occurred_at < $%d", *req.To)
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM access_logs WHERE `+whereSQL, args...); err != nil {
		return nil, fmt.Errorf("failed to count access logs: %w", err)
	}

	p := req.Pagination.Sanitize()
	orderBy, ok := access.SortColumns[p.OrderBy]
	if !ok {
		orderBy = "occurred_at"
	}

	query := fmt.Sprintf(`SELECT %s FROM access_logs WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		accessColumns, whereSQL, orderBy, p.OrderDir, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	var models []accessLogModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}

	items := make([]access.AccessLog, 0, len(models))
	for i := range models {
		items = append(items, models[i].toEntity())
	}
	return kernel.NewPaginated(items, p.Page, p.PageSize, total), nil
}

func (r *PostgresAccessRepository) CountByResult(ctx context.Context, tenantID kernel.TenantID, from, to time.Time) (map[access.Result]int, error) {
	var rows []struct {
		Result string `db:"result"`
		Count  int    `db:"count"`
	}
	query := `
		SELECT result, COUNT(*) AS count
		FROM access_logs
		WHERE tenant_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		GROUP BY result
	`
	if err := r.db.SelectContext(ctx, &rows, query, tenantID.String(), from, to); err != nil {
		return nil, fmt.Errorf("failed to count access logs: %w", err)
	}

	counts := make(map[access.Result]int, len(rows))
	for _, row := range rows {
		counts[access.Result(row.Result)] = row.Count
	}
	return counts, nil
}
