package access

import (
	"context"
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

type Repository interface {
	Create(ctx context.Context, l *AccessLog) error

	GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.AccessLogID) (*AccessLog, error)

	List(ctx context.Context, tenantID kernel.TenantID, req ListAccessLogsRequest) (*kernel.Paginated[AccessLog], error)

	// CountByResult counts decisions in [from, to)
	CountByResult(ctx context.Context, tenantID kernel.TenantID, from, to time.Time) (map[Result]int, error)
}

// ComplianceChecker reports whether an owner holds every required document
type ComplianceChecker interface {
	Summary(ctx context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) (*document.ComplianceSummary, error)
}
