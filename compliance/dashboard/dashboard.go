package dashboard

import (
	"context"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// DefaultExpiringWindow is how far ahead "expiring soon" looks
const DefaultExpiringWindow = 30 * 24 * time.Hour

// Overview is the tenant-wide picture shown on the coordinator home page
type Overview struct {
	Companies      map[company.CompanyStatus]int   `json:"companies"`
	Workers        map[worker.WorkerStatus]int     `json:"workers"`
	Documents      map[document.DocumentStatus]int `json:"documents"`
	ExpiringSoon   int                             `json:"expiring_soon"`
	ExpiringWindow int                             `json:"expiring_window_days"`
	AccessToday    AccessCounts                    `json:"access_today"`
	Compliance     ComplianceCounts                `json:"compliance"`
	GeneratedAt    time.Time                       `json:"generated_at"`
}

type AccessCounts struct {
	Granted int `json:"granted"`
	Denied  int `json:"denied"`
}

// ComplianceCounts covers companies that are not archived
type ComplianceCounts struct {
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
}

// DocumentStats is the slice of the document service the dashboard reads
type DocumentStats interface {
	CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[document.DocumentStatus]int, error)
	CountExpiringWithin(ctx context.Context, tenantID kernel.TenantID, window time.Duration) (int, error)
	Summary(ctx context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) (*document.ComplianceSummary, error)
}

// AccessStats reports today's gate decisions
type AccessStats interface {
	CountToday(ctx context.Context, tenantID kernel.TenantID) (granted, denied int, err error)
}
