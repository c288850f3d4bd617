package documentinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// MemoryDocumentRepository keeps documents in process. Used by tests and
// by `cae serve --memory`.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	data map[kernel.DocumentID]document.Document
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{data: make(map[kernel.DocumentID]document.Document)}
}

var _ document.Repository = (*MemoryDocumentRepository)(nil)

func (r *MemoryDocumentRepository) Create(_ context.Context, d *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[d.ID] = *d
	return nil
}

func (r *MemoryDocumentRepository) Update(_ context.Context, d *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[d.ID]
	if !ok || existing.TenantID != d.TenantID {
		return document.ErrDocumentNotFound()
	}
	r.data[d.ID] = *d
	return nil
}

func (r *MemoryDocumentRepository) GetByID(_ context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.data[id]
	if !ok || d.TenantID != tenantID {
		return nil, document.ErrDocumentNotFound()
	}
	return &d, nil
}

func (r *MemoryDocumentRepository) List(_ context.Context, tenantID kernel.TenantID, req document.ListDocumentsRequest) (*kernel.Paginated[document.Document], error) {
	var allowed map[kernel.CompanyID]bool
	if req.CompanyIDs != nil {
		allowed = make(map[kernel.CompanyID]bool, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			allowed[id] = true
		}
	}

	r.mu.RLock()
	var items []document.Document
	for _, d := range r.data {
		switch {
		case d.TenantID != tenantID:
		case !req.IncludeOld && !d.IsCurrent():
		case req.CompanyID != nil && d.CompanyID != *req.CompanyID:
		case allowed != nil && !allowed[d.CompanyID]:
		case req.OwnerType != "" && d.OwnerType != req.OwnerType:
		case req.OwnerID != "" && d.OwnerID != req.OwnerID:
		case req.Type != "" && d.Type != req.Type:
		case req.Status != "" && d.Status != req.Status:
		case req.ExpiringBefore != nil && (d.ExpiresAt == nil || !d.ExpiresAt.Before(*req.ExpiringBefore)):
		default:
			items = append(items, d)
		}
	}
	r.mu.RUnlock()

	p := req.Pagination.Sanitize()
	less := func(a, b document.Document) bool {
		switch p.OrderBy {
		case "expires_at":
			return expiry(a).Before(expiry(b))
		case "status":
			return a.Status < b.Status
		case "type":
			return a.Type < b.Type
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

func expiry(d document.Document) time.Time {
	if d.ExpiresAt == nil {
		return time.Time{}
	}
	return *d.ExpiresAt
}

func (r *MemoryDocumentRepository) ListCurrentByOwner(_ context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) ([]document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []document.Document
	for _, d := range r.data {
		if d.TenantID == tenantID && d.OwnerType == ownerType && d.OwnerID == ownerID && d.IsCurrent() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryDocumentRepository) ListExpirable(_ context.Context, now time.Time, limit int) ([]document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []document.Document
	for _, d := range r.data {
		if d.Status == document.StatusValid && d.IsExpiredAt(now) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryDocumentRepository) CountByStatus(_ context.Context, tenantID kernel.TenantID) (map[document.DocumentStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[document.DocumentStatus]int)
	for _, d := range r.data {
		if d.TenantID == tenantID {
			counts[d.Status]++
		}
	}
	return counts, nil
}

func (r *MemoryDocumentRepository) CountExpiringBetween(_ context.Context, tenantID kernel.TenantID, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, d := range r.data {
		if d.TenantID == tenantID && d.Status == document.StatusValid && d.ExpiresAt != nil &&
			!d.ExpiresAt.Before(from) && d.ExpiresAt.Before(to) {
			n++
		}
	}
	return n, nil
}
