package worker

import (
	"context"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

type Repository interface {
	// Create persists a new worker. Returns ErrPersonIDAlreadyExists on a duplicate DNI/NIE.
	Create(ctx context.Context, w *Worker) error

	Update(ctx context.Context, w *Worker) error

	GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*Worker, error)

	// GetByPersonID looks up by normalized DNI/NIE
	GetByPersonID(ctx context.Context, tenantID kernel.TenantID, personID kernel.PersonID) (*Worker, error)

	Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) error

	List(ctx context.Context, tenantID kernel.TenantID, req ListWorkersRequest) (*kernel.Paginated[Worker], error)

	// CountByCompany returns total and active headcount
	CountByCompany(ctx context.Context, tenantID kernel.TenantID, companyID kernel.CompanyID) (total int, active int, err error)

	CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[WorkerStatus]int, error)
}
