package companysrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/google/uuid"
)

// CompanyService provides business operations for the contractor registry
type CompanyService struct {
	companyRepo   company.Repository
	workerCounter company.WorkerCounter
	publisher     audit.Publisher
}

// NewCompanyService creates a new instance of the company service
func NewCompanyService(
	companyRepo company.Repository,
	workerCounter company.WorkerCounter,
	publisher audit.Publisher,
) *CompanyService {
	return &CompanyService{
		companyRepo:   companyRepo,
		workerCounter: workerCounter,
		publisher:     publisher,
	}
}

// CreateCompany registers a contractor. The CIF is validated and stored normalized.
func (s *CompanyService) CreateCompany(ctx context.Context, req company.CreateCompanyRequest, tenantID kernel.TenantID) (*company.Company, error) {
	if strings.TrimSpace(string(req.Name)) == "" {
		return nil, company.ErrInvalidRequest().WithDetail("name", "required")
	}
	if !req.TaxID.IsValid() {
		return nil, company.ErrInvalidTaxID().WithDetail("tax_id", string(req.TaxID))
	}
	if req.Email != "" && !req.Email.IsValid() {
		return nil, company.ErrInvalidRequest().WithDetail("email", "invalid")
	}

	taxID := req.TaxID.Normalize()
	if existing, err := s.companyRepo.GetByTaxID(ctx, tenantID, taxID); err == nil && existing != nil {
		return nil, company.ErrCompanyAlreadyExists().
			WithDetail("tax_id", taxID.String()).
			WithDetail("company_id", existing.ID.String())
	}

	if req.ParentID != nil {
		chain, err := s.chain(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := chain.CheckParent("", *req.ParentID); err != nil {
			return nil, err
		}
		if parent, _ := chain.Get(*req.ParentID); parent.IsArchived() {
			return nil, company.ErrCompanyArchived().WithDetail("parent_id", req.ParentID.String())
		}
	}

	now := time.Now()
	newCompany := &company.Company{
		ID:        kernel.NewCompanyID(uuid.NewString()),
		TenantID:  tenantID,
		ParentID:  req.ParentID,
		Name:      kernel.CompanyName(strings.TrimSpace(string(req.Name))),
		TaxID:     taxID,
		Email:     req.Email.Normalize(),
		Phone:     req.Phone,
		Address:   req.Address,
		Activity:  req.Activity,
		Status:    company.CompanyStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.companyRepo.Create(ctx, newCompany); err != nil {
		if errx.IsCode(err, company.CodeCompanyAlreadyExists) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to create company", errx.TypeInternal)
	}

	logx.Infof("Company %s registered (CIF %s) in tenant %s", newCompany.ID, taxID, tenantID)
	return newCompany, nil
}

// GetCompany retrieves a company by ID
func (s *CompanyService) GetCompany(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID) (*company.Company, error) {
	c, err := s.companyRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errx.IsCode(err, company.CodeCompanyNotFound) {
			return nil, company.ErrCompanyNotFound().WithDetail("company_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to get company", errx.TypeInternal)
	}
	return c, nil
}

// UpdateCompany edits details and optionally moves the company in the chain
func (s *CompanyService) UpdateCompany(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID, req company.UpdateCompanyRequest) (*company.Company, error) {
	c, err := s.GetCompany(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c.IsArchived() {
		return nil, company.ErrCompanyArchived().WithDetail("company_id", id.String())
	}

	var (
		name     kernel.CompanyName
		email    kernel.Email
		phone    kernel.Phone
		address  kernel.Address
		activity string
	)
	if req.Name != nil {
		name = kernel.CompanyName(strings.TrimSpace(string(*req.Name)))
	}
	if req.Email != nil {
		if !req.Email.IsValid() {
			return nil, company.ErrInvalidRequest().WithDetail("email", "invalid")
		}
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Address != nil {
		address = *req.Address
	}
	if req.Activity != nil {
		activity = *req.Activity
	}
	c.UpdateDetails(name, email, phone, address, activity)

	switch {
	case req.DetachParent:
		c.ParentID = nil
	case req.ParentID != nil && (c.ParentID == nil || *c.ParentID != *req.ParentID):
		chain, err := s.chain(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := chain.CheckParent(c.ID, *req.ParentID); err != nil {
			return nil, err
		}
		parent := *req.ParentID
		c.ParentID = &parent
	}

	if err := s.companyRepo.Update(ctx, c); err != nil {
		return nil, errx.Wrap(err, "failed to update company", errx.TypeInternal)
	}
	return c, nil
}

// ListCompanies lists companies with filters. visible restricts the result
// to a set of companies, nil means no restriction.
func (s *CompanyService) ListCompanies(ctx context.Context, tenantID kernel.TenantID, req company.ListCompaniesRequest, visible []kernel.CompanyID) (*kernel.Paginated[company.Company], error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, company.ErrInvalidRequest().WithDetail("status", string(req.Status))
	}
	if _, ok := company.SortColumns[req.Pagination.OrderBy]; !ok {
		req.Pagination.OrderBy = "created_at"
	}
	req.Pagination = req.Pagination.Sanitize()
	req.IDs = visible

	page, err := s.companyRepo.List(ctx, tenantID, req)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list companies", errx.TypeInternal)
	}
	return page, nil
}

// ActivateCompany allows a company on site
func (s *CompanyService) ActivateCompany(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID, actor string) (*company.Company, error) {
	return s.transition(ctx, tenantID, id, actor, (*company.Company).Activate)
}

// SuspendCompany blocks an active company
func (s *CompanyService) SuspendCompany(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID, actor string) (*company.Company, error) {
	return s.transition(ctx, tenantID, id, actor, (*company.Company).Suspend)
}

// ArchiveCompany retires a company
func (s *CompanyService) ArchiveCompany(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID, actor string) (*company.Company, error) {
	return s.transition(ctx, tenantID, id, actor, (*company.Company).Archive)
}

func (s *CompanyService) transition(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID, actor string, apply func(*company.Company) error) (*company.Company, error) {
	c, err := s.GetCompany(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Update(ctx, c); err != nil {
		return nil, errx.Wrap(err, "failed to update company status", errx.TypeInternal)
	}

	if err := s.publisher.Publish(ctx, audit.Event{
		Type:     audit.EventCompanyStatusChanged,
		TenantID: tenantID,
		ActorID:  actor,
		Subject:  "company:" + id.String(),
		Payload: map[string]any{
			"from": string(from),
			"to":   string(c.Status),
		},
		OccurredAt: c.UpdatedAt,
	}); err != nil {
		logx.Warnf("audit publish failed for company %s: %v", id, err)
	}
	return c, nil
}

// GetTree returns the subcontracting tree rooted at root, or the full forest
func (s *CompanyService) GetTree(ctx context.Context, tenantID kernel.TenantID, root *kernel.CompanyID) ([]*company.CompanyNode, error) {
	chain, err := s.chain(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if root != nil {
		if _, ok := chain.Get(*root); !ok {
			return nil, company.ErrCompanyNotFound().WithDetail("company_id", root.String())
		}
	}
	return chain.Tree(root), nil
}

// GetStats summarizes one company's chain position and headcount
func (s *CompanyService) GetStats(ctx context.Context, tenantID kernel.TenantID, id kernel.CompanyID) (*company.CompanyStatsResponse, error) {
	chain, err := s.chain(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c, ok := chain.Get(id)
	if !ok {
		return nil, company.ErrCompanyNotFound().WithDetail("company_id", id.String())
	}

	stats := &company.CompanyStatsResponse{
		CompanyID:           c.ID,
		Name:                c.Name,
		Status:              c.Status,
		Depth:               chain.Depth(id),
		TotalSubcontractors: len(chain.Descendants(id)),
		CreatedAt:           c.CreatedAt,
	}
	for _, node := range chain.Tree(&id) {
		stats.DirectSubcontractors = len(node.Children)
	}

	if s.workerCounter != nil {
		total, active, err := s.workerCounter.CountByCompany(ctx, tenantID, id)
		if err != nil {
			return nil, errx.Wrap(err, "failed to count workers", errx.TypeInternal)
		}
		stats.Workers = total
		stats.ActiveWorkers = active
	}
	return stats, nil
}

// CountByStatus is used by the dashboard
func (s *CompanyService) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[company.CompanyStatus]int, error) {
	counts, err := s.companyRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to count companies", errx.TypeInternal)
	}
	return counts, nil
}

// Visible returns the companies a principal may see: nil for unrestricted
// principals, the bound company and its subcontractors otherwise.
func (s *CompanyService) Visible(ctx context.Context, ac *auth.AuthContext) ([]kernel.CompanyID, error) {
	if !ac.IsCompanyBound() {
		return nil, nil
	}
	chain, err := s.chain(ctx, ac.TenantID)
	if err != nil {
		return nil, err
	}
	root := *ac.CompanyID
	return append([]kernel.CompanyID{root}, chain.Descendants(root)...), nil
}

// CheckAccess rejects company-bound principals acting outside their subtree
func (s *CompanyService) CheckAccess(ctx context.Context, ac *auth.AuthContext, id kernel.CompanyID) error {
	if !ac.IsCompanyBound() {
		return nil
	}
	chain, err := s.chain(ctx, ac.TenantID)
	if err != nil {
		return err
	}
	if !chain.Contains(*ac.CompanyID, id) {
		return auth.ErrOutsideCompany().WithDetail("company_id", id.String())
	}
	return nil
}

func (s *CompanyService) chain(ctx context.Context, tenantID kernel.TenantID) (*company.Chain, error) {
	all, err := s.companyRepo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load companies", errx.TypeInternal)
	}
	return company.NewChain(all), nil
}
