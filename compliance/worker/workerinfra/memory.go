package workerinfra

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// MemoryWorkerRepository keeps workers in process. Used by tests and by
// `cae serve --memory`.
type MemoryWorkerRepository struct {
	mu   sync.RWMutex
	data map[kernel.WorkerID]worker.Worker
}

func NewMemoryWorkerRepository() *MemoryWorkerRepository {
	return &MemoryWorkerRepository{data: make(map[kernel.WorkerID]worker.Worker)}
}

func (r *MemoryWorkerRepository) Create(_ context.Context, w *worker.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicate(w) {
		return worker.ErrPersonIDAlreadyExists().WithDetail("person_id", w.PersonID.Mask())
	}
	r.data[w.ID] = *w
	return nil
}

func (r *MemoryWorkerRepository) Update(_ context.Context, w *worker.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[w.ID]
	if !ok || existing.TenantID != w.TenantID {
		return worker.ErrWorkerNotFound()
	}
	if r.duplicate(w) {
		return worker.ErrPersonIDAlreadyExists().WithDetail("person_id", w.PersonID.Mask())
	}
	r.data[w.ID] = *w
	return nil
}

// duplicate must be called with the lock held
func (r *MemoryWorkerRepository) duplicate(w *worker.Worker) bool {
	for id, existing := range r.data {
		if id != w.ID && existing.TenantID == w.TenantID && existing.PersonID == w.PersonID {
			return true
		}
	}
	return false
}

func (r *MemoryWorkerRepository) GetByID(_ context.Context, tenantID kernel.TenantID, id kernel.WorkerID) (*worker.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.data[id]
	if !ok || w.TenantID != tenantID {
		return nil, worker.ErrWorkerNotFound()
	}
	return &w, nil
}

func (r *MemoryWorkerRepository) GetByPersonID(_ context.Context, tenantID kernel.TenantID, personID kernel.PersonID) (*worker.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := personID.Normalize()
	for _, w := range r.data {
		if w.TenantID == tenantID && w.PersonID == want {
			return &w, nil
		}
	}
	return nil, worker.ErrWorkerNotFound()
}

func (r *MemoryWorkerRepository) Delete(_ context.Context, tenantID kernel.TenantID, id kernel.WorkerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.data[id]
	if !ok || w.TenantID != tenantID {
		return worker.ErrWorkerNotFound()
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryWorkerRepository) List(_ context.Context, tenantID kernel.TenantID, req worker.ListWorkersRequest) (*kernel.Paginated[worker.Worker], error) {
	var allowed map[kernel.CompanyID]bool
	if req.CompanyIDs != nil {
		allowed = make(map[kernel.CompanyID]bool, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			allowed[id] = true
		}
	}
	q := strings.ToLower(strings.TrimSpace(req.Query))

	r.mu.RLock()
	var items []worker.Worker
	for _, w := range r.data {
		switch {
		case w.TenantID != tenantID:
		case req.Status != "" && w.Status != req.Status:
		case req.CompanyID != nil && w.CompanyID != *req.CompanyID:
		case allowed != nil && !allowed[w.CompanyID]:
		case q != "" && !matches(w, q):
		default:
			items = append(items, w)
		}
	}
	r.mu.RUnlock()

	p := req.Pagination.Sanitize()
	less := func(a, b worker.Worker) bool {
		switch p.OrderBy {
		case "last_name":
			return a.LastName < b.LastName
		case "status":
			return a.Status < b.Status
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if p.OrderDir == kernel.SortAsc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})

	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.PageSize, total)
	return kernel.NewPaginated(items[start:end], p.Page, p.PageSize, total), nil
}

func matches(w worker.Worker, q string) bool {
	return strings.Contains(strings.ToLower(w.GetFullName()), q) ||
		strings.Contains(strings.ToLower(w.PersonID.String()), q)
}

func (r *MemoryWorkerRepository) CountByCompany(_ context.Context, tenantID kernel.TenantID, companyID kernel.CompanyID) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total, active int
	for _, w := range r.data {
		if w.TenantID == tenantID && w.CompanyID == companyID {
			total++
			if w.IsActive() {
				active++
			}
		}
	}
	return total, active, nil
}

func (r *MemoryWorkerRepository) CountByStatus(_ context.Context, tenantID kernel.TenantID) (map[worker.WorkerStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[worker.WorkerStatus]int)
	for _, w := range r.data {
		if w.TenantID == tenantID {
			counts[w.Status]++
		}
	}
	return counts, nil
}
