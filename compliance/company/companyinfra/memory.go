package companyinfra

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// MemoryCompanyRepository keeps companies in process. Used by tests and
// by `cae serve --memory`.
type MemoryCompanyRepository struct {
	mu   sync.RWMutex
	data map[kernel.CompanyID]company.Company
}

func NewMemoryCompanyRepository() *MemoryCompanyRepository {
	return &MemoryCompanyRepository{data: make(map[kernel.CompanyID]company.Company)}
}

func (r *MemoryCompanyRepository) Create(_ context.Context, c *company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.TenantID == c.TenantID && existing.TaxID == c.TaxID {
			return company.ErrCompanyAlreadyExists().WithDetail("tax_id", c.TaxID.String())
		}
	}
	r.data[c.ID] = *c
	return nil
}

func (r *MemoryCompanyRepository) Update(_ context.Context, c *company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return company.ErrCompanyNotFound()
	}
	r.data[c.ID] = *c
	return nil
}

func (r *MemoryCompanyRepository) GetByID(_ context.Context, tenantID kernel.TenantID, id kernel.CompanyID) (*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok || c.TenantID != tenantID {
		return nil, company.ErrCompanyNotFound()
	}
	return &c, nil
}

func (r *MemoryCompanyRepository) GetByTaxID(_ context.Context, tenantID kernel.TenantID, taxID kernel.TaxID) (*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := taxID.Normalize()
	for _, c := range r.data {
		if c.TenantID == tenantID && c.TaxID == want {
			return &c, nil
		}
	}
	return nil, company.ErrCompanyNotFound()
}

func (r *MemoryCompanyRepository) List(_ context.Context, tenantID kernel.TenantID, req company.ListCompaniesRequest) (*kernel.Paginated[company.Company], error) {
	var allowed map[kernel.CompanyID]bool
	if req.IDs != nil {
		allowed = make(map[kernel.CompanyID]bool, len(req.IDs))
		for _, id := range req.IDs {
			allowed[id] = true
		}
	}
	q := strings.ToLower(strings.TrimSpace(req.Query))

	r.mu.RLock()
	var items []company.Company
	for _, c := range r.data {
		switch {
		case c.TenantID != tenantID:
		case req.Status != "" && c.Status != req.Status:
		case req.ParentID != nil && (c.ParentID == nil || *c.ParentID != *req.ParentID):
		case allowed != nil && !allowed[c.ID]:
		case q != "" && !strings.Contains(strings.ToLower(string(c.Name)), q) && !strings.Contains(strings.ToLower(c.TaxID.String()), q):
		default:
			items = append(items, c)
		}
	}
	r.mu.RUnlock()

	p := req.Pagination.Sanitize()
	less := func(a, b company.Company) bool {
		switch p.OrderBy {
		case "name":
			return a.Name < b.Name
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

func (r *MemoryCompanyRepository) ListAll(_ context.Context, tenantID kernel.TenantID) ([]company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []company.Company
	for _, c := range r.data {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryCompanyRepository) CountByStatus(_ context.Context, tenantID kernel.TenantID) (map[company.CompanyStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[company.CompanyStatus]int)
	for _, c := range r.data {
		if c.TenantID == tenantID {
			counts[c.Status]++
		}
	}
	return counts, nil
}
