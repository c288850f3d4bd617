package dashboardsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/dashboard"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
)

// DashboardService aggregates counters from every compliance context
type DashboardService struct {
	companyRepo company.Repository
	workerRepo  worker.Repository
	documents   dashboard.DocumentStats
	access      dashboard.AccessStats
}

// NewDashboardService creates a new instance of the dashboard service
func NewDashboardService(
	companyRepo company.Repository,
	workerRepo worker.Repository,
	documents dashboard.DocumentStats,
	access dashboard.AccessStats,
) *DashboardService {
	return &DashboardService{
		companyRepo: companyRepo,
		workerRepo:  workerRepo,
		documents:   documents,
		access:      access,
	}
}

// GetOverview builds the tenant overview. window <= 0 uses the default.
func (s *DashboardService) GetOverview(ctx context.Context, tenantID kernel.TenantID, window time.Duration) (*dashboard.Overview, error) {
	if window <= 0 {
		window = dashboard.DefaultExpiringWindow
	}
	start := time.Now()
	o := &dashboard.Overview{
		ExpiringWindow: int(window / (24 * time.Hour)),
		GeneratedAt:    start,
	}

	var err error
	if o.Companies, err = s.companyRepo.CountByStatus(ctx, tenantID); err != nil {
		return nil, errx.Wrap(err, "failed to count companies", errx.TypeInternal)
	}
	if o.Workers, err = s.workerRepo.CountByStatus(ctx, tenantID); err != nil {
		return nil, errx.Wrap(err, "failed to count workers", errx.TypeInternal)
	}
	if o.Documents, err = s.documents.CountByStatus(ctx, tenantID); err != nil {
		return nil, err
	}
	if o.ExpiringSoon, err = s.documents.CountExpiringWithin(ctx, tenantID, window); err != nil {
		return nil, err
	}
	if o.AccessToday.Granted, o.AccessToday.Denied, err = s.access.CountToday(ctx, tenantID); err != nil {
		return nil, err
	}
	if o.Compliance, err = s.companyCompliance(ctx, tenantID); err != nil {
		return nil, err
	}

	logx.Debugf("Dashboard for tenant %s built in %s", tenantID, time.Since(start))
	return o, nil
}

// companyCompliance checks every non-archived company against its required documents
func (s *DashboardService) companyCompliance(ctx context.Context, tenantID kernel.TenantID) (dashboard.ComplianceCounts, error) {
	var counts dashboard.ComplianceCounts

	companies, err := s.companyRepo.ListAll(ctx, tenantID)
	if err != nil {
		return counts, errx.Wrap(err, "failed to list companies", errx.TypeInternal)
	}
	for _, c := range companies {
		if c.IsArchived() {
			continue
		}
		summary, err := s.documents.Summary(ctx, tenantID, document.OwnerCompany, c.ID.String())
		if err != nil {
			return counts, err
		}
		if summary.IsCompliant() {
			counts.Compliant++
		} else {
			counts.NonCompliant++
		}
	}
	return counts, nil
}
