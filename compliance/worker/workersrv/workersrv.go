package workersrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/google/uuid"
)

// WorkerService provides business operations for contractor personnel
type WorkerService struct {
	workerRepo  worker.Repository
	companyRepo company.Repository
}

// NewWorkerService creates a new instance of the worker service
func NewWorkerService(workerRepo worker.Repository, companyRepo company.Repository) *WorkerService {
	return &WorkerService{
		workerRepo:  workerRepo,
		companyRepo: companyRepo,
	}
}

// CreateWorker registers a worker under a company. The DNI/NIE is
// validated, normalized and classified before it is stored.
func (s *WorkerService) CreateWorker(ctx context.Context, req worker.CreateWorkerRequest, tenantID kernel.TenantID) (*worker.Worker, error) {
	if strings.TrimSpace(string(req.FirstName)) == "" || strings.TrimSpace(string(req.LastName)) == "" {
		return nil, worker.ErrInvalidRequest().WithDetail("name", "first and last name are required")
	}
	if req.Email != "" && !req.Email.IsValid() {
		return nil, worker.ErrInvalidRequest().WithDetail("email", "invalid")
	}

	owner, err := s.companyRepo.GetByID(ctx, tenantID, req.CompanyID)
	if err != nil {
		if errx.IsCode(err, company.CodeCompanyNotFound) {
			return nil, company.ErrCompanyNotFound().WithDetail("company_id", req.CompanyID.String())
		}
		return nil, errx.Wrap(err, "failed to get company", errx.TypeInternal)
	}
	if owner.IsArchived() {
		return nil, worker.ErrCompanyNotOpen().WithDetail("company_id", owner.ID.String())
	}

	now := time.Now()
	newWorker := &worker.Worker{
		ID:          kernel.NewWorkerID(uuid.NewString()),
		TenantID:    tenantID,
		CompanyID:   owner.ID,
		FirstName:   kernel.FirstName(strings.TrimSpace(string(req.FirstName))),
		LastName:    kernel.LastName(strings.TrimSpace(string(req.LastName))),
		Email:       req.Email.Normalize(),
		Phone:       req.Phone,
		JobPosition: req.JobPosition,
		Status:      worker.WorkerStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := newWorker.SetPersonID(req.PersonID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, tenantID, newWorker.PersonID, ""); err != nil {
		return nil, err
	}

	if err := s.workerRepo.Create(ctx, newWorker); err != nil {
		if errx.IsCode(err, worker.CodePersonIDAlreadyExists) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to create worker", errx.TypeInternal)
	}

	logx.Infof("Worker %s registered for company %s (%s %s)", newWorker.ID, owner.ID, newWorker.PersonIDKind, newWorker.PersonID.Mask())
	return newWorker, nil
}

func (s *WorkerService) ensureUnique(ctx context.Context, tenantID kernel.TenantID, personID kernel.PersonID, self kernel.WorkerID) error {
	existing, err := s.workerRepo.GetByPersonID(ctx, tenantID, personID)
	if err != nil {
		if errx.IsCode(err, worker.CodeWorkerNotFound) {
			return nil
		}
		return errx.Wrap(err, "failed to check person id", errx.TypeInternal)
	}
	if existing == nil || existing.ID == self {
		return nil
	}
	return worker.ErrPersonIDAlreadyExists().
		WithDetail("person_id", personID.Mask()).
		WithDetail("worker_id", existing.ID.String())
}

// GetWorker retrieves a worker by ID
func (s *WorkerService) GetWorker(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*worker.Worker, error) {
	w, err := s.workerRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errx.IsCode(err, worker.CodeWorkerNotFound) {
			return nil, worker.ErrWorkerNotFound().WithDetail("worker_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to get worker", errx.TypeInternal)
	}
	return w, nil
}

// GetByPersonID finds a worker by any spelling of their DNI/NIE
func (s *WorkerService) GetByPersonID(ctx context.Context, tenantID kernel.TenantID, personID kernel.PersonID) (*worker.Worker, error) {
	if !personID.IsValid() {
		return nil, worker.ErrInvalidPersonID().WithDetail("person_id", personID.Mask())
	}
	w, err := s.workerRepo.GetByPersonID(ctx, tenantID, personID.Normalize())
	if err != nil {
		if errx.IsCode(err, worker.CodeWorkerNotFound) {
			return nil, worker.ErrWorkerNotFound().WithDetail("person_id", personID.Mask())
		}
		return nil, errx.Wrap(err, "failed to get worker", errx.TypeInternal)
	}
	return w, nil
}

// UpdateWorker edits a worker
func (s *WorkerService) UpdateWorker(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID, req worker.UpdateWorkerRequest) (*worker.Worker, error) {
	w, err := s.GetWorker(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil && strings.TrimSpace(string(*req.FirstName)) != "" {
		w.FirstName = kernel.FirstName(strings.TrimSpace(string(*req.FirstName)))
	}
	if req.LastName != nil && strings.TrimSpace(string(*req.LastName)) != "" {
		w.LastName = kernel.LastName(strings.TrimSpace(string(*req.LastName)))
	}
	if req.PersonID != nil {
		if err := w.SetPersonID(*req.PersonID); err != nil {
			return nil, err
		}
		if err := s.ensureUnique(ctx, tenantID, w.PersonID, w.ID); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if *req.Email != "" && !req.Email.IsValid() {
			return nil, worker.ErrInvalidRequest().WithDetail("email", "invalid")
		}
		w.Email = req.Email.Normalize()
	}
	if req.Phone != nil {
		w.Phone = *req.Phone
	}
	if req.JobPosition != nil {
		w.JobPosition = *req.JobPosition
	}
	w.UpdatedAt = time.Now()

	if err := s.workerRepo.Update(ctx, w); err != nil {
		if errx.IsCode(err, worker.CodePersonIDAlreadyExists) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to update worker", errx.TypeInternal)
	}
	return w, nil
}

// ListWorkers lists workers; companies restricts to a set of owners, nil means any
func (s *WorkerService) ListWorkers(ctx context.Context, tenantID kernel.TenantID, req worker.ListWorkersRequest, companies []kernel.CompanyID) (*kernel.Paginated[worker.Worker], error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, worker.ErrInvalidRequest().WithDetail("status", string(req.Status))
	}
	if _, ok := worker.SortColumns[req.Pagination.OrderBy]; !ok {
		req.Pagination.OrderBy = "created_at"
	}
	req.Pagination = req.Pagination.Sanitize()
	req.CompanyIDs = companies

	page, err := s.workerRepo.List(ctx, tenantID, req)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list workers", errx.TypeInternal)
	}
	return page, nil
}

// ActivateWorker marks a worker as active again
func (s *WorkerService) ActivateWorker(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*worker.Worker, error) {
	return s.transition(ctx, tenantID, id, (*worker.Worker).Activate)
}

// DeactivateWorker marks a worker as inactive; inactive workers are denied site access
func (s *WorkerService) DeactivateWorker(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*worker.Worker, error) {
	return s.transition(ctx, tenantID, id, (*worker.Worker).Deactivate)
}

func (s *WorkerService) transition(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID, apply func(*worker.Worker) error) (*worker.Worker, error) {
	w, err := s.GetWorker(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(w); err != nil {
		return nil, err
	}
	if err := s.workerRepo.Update(ctx, w); err != nil {
		return nil, errx.Wrap(err, "failed to update worker status", errx.TypeInternal)
	}
	return w, nil
}

// DeleteWorker removes a worker
func (s *WorkerService) DeleteWorker(ctx context.Context, tenantID kernel.TenantID, id kernel.WorkerID) error {
	if err := s.workerRepo.Delete(ctx, tenantID, id); err != nil {
		if errx.IsCode(err, worker.CodeWorkerNotFound) {
			return err
		}
		return errx.Wrap(err, "failed to delete worker", errx.TypeInternal)
	}
	return nil
}

// CountByStatus is used by the dashboard
func (s *WorkerService) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[worker.WorkerStatus]int, error) {
	counts, err := s.workerRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to count workers", errx.TypeInternal)
	}
	return counts, nil
}
