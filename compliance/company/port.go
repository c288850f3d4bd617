package company

import (
	"context"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

type Repository interface {
	// Create persists a new company. Returns ErrCompanyAlreadyExists on a duplicate CIF.
	Create(ctx context.Context, c *Company) error

	Update(ctx context.Context, c *Company) error

	GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID) (*Company, error)

	// GetByTaxID looks up by normalized CIF
	GetByTaxID(ctx context.Context, tenantID kernel.TenantID, taxID kernel.TaxID) (*Company, error)

	List(ctx context.Context, tenantID kernel.TenantID, req ListCompaniesRequest) (*kernel.Paginated[Company], error)

	// ListAll returns every company of the tenant, used to build subcontracting trees
	ListAll(ctx context.Context, tenantID kernel.TenantID) ([]Company, error)

	CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[CompanyStatus]int, error)
}

// WorkerCounter reports headcount per company for Stats
type WorkerCounter interface {
	CountByCompany(ctx context.Context, tenantID kernel.TenantID, companyID kernel.CompanyID) (total int, active int, err error)
}
