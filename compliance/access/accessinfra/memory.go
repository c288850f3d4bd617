package accessinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// MemoryAccessRepository keeps access logs in process. Used by tests and
// by `cae serve --memory`.
type MemoryAccessRepository struct {
	mu   sync.RWMutex
	data map[kernel.AccessLogID]access.AccessLog
}

func NewMemoryAccessRepository() *MemoryAccessRepository {
	return &MemoryAccessRepository{data: make(map[kernel.AccessLogID]access.AccessLog)}
}

var _ access.Repository = (*MemoryAccessRepository)(nil)

func (r *MemoryAccessRepository) Create(_ context.Context, l *access.AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[l.ID] = *l
	return nil
}

func (r *MemoryAccessRepository) GetByID(_ context.Context, tenantID kernel.TenantID, id kernel.AccessLogID) (*access.AccessLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.data[id]
	if !ok || l.TenantID != tenantID {
		return nil, access.ErrAccessLogNotFound()
	}
	return &l, nil
}

func (r *MemoryAccessRepository) List(_ context.Context, tenantID kernel.TenantID, req access.ListAccessLogsRequest) (*kernel.Paginated[access.AccessLog], error) {
	var allowed map[kernel.CompanyID]bool
	if req.CompanyIDs != nil {
		allowed = make(map[kernel.CompanyID]bool, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			allowed[id] = true
		}
	}

	r.mu.RLock()
	var items []access.AccessLog
	for _, l := range r.data {
		switch {
		case l.TenantID != tenantID:
		case req.SiteID != nil && l.SiteID != *req.SiteID:
		case req.WorkerID != nil && (l.WorkerID == nil || *l.WorkerID != *req.WorkerID):
		case req.CompanyID != nil && (l.CompanyID == nil || *l.CompanyID != *req.CompanyID):
		case allowed != nil && (l.CompanyID == nil || !allowed[*l.CompanyID]):
		case req.Direction != "" && l.Direction != req.Direction:
		case req.Result != "" && l.Result != req.Result:
		case req.From != nil && l.OccurredAt.Before(*req.From):
		case req.To != nil && !l.OccurredAt.Before(*req.To):
		default:
			items = append(items, l)
		}
	}
	r.mu.RUnlock()

	p := req.Pagination.Sanitize()
	less := func(a, b access.AccessLog) bool {
		switch p.OrderBy {
		case "result":
			return a.Result < b.Result
		case "site_id":
			return a.SiteID < b.SiteID
		default:
			return a.OccurredAt.Before(b.OccurredAt)
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

func (r *MemoryAccessRepository) CountByResult(_ context.Context, tenantID kernel.TenantID, from, to time.Time) (map[access.Result]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[access.Result]int)
	for _, l := range r.data {
		if l.TenantID == tenantID && !l.OccurredAt.Before(from) && l.OccurredAt.Before(to) {
			counts[l.Result]++
		}
	}
	return counts, nil
}
