package companyapi

import (
	"strings"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for the contractor registry
type Handlers struct {
	service *companysrv.CompanyService
}

// NewHandlers creates a new company handlers instance
func NewHandlers(service *companysrv.CompanyService) *Handlers {
	return &Handlers{
		service: service,
	}
}

// CreateCompany registers a contractor or subcontractor
// POST /api/companies
func (h *Handlers) CreateCompany(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	var req company.CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return company.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}

	// Company users can only register subcontractors below themselves
	if authContext.IsCompanyBound() {
		if req.ParentID == nil {
			req.ParentID = authContext.CompanyID
		}
		if err := h.service.CheckAccess(c.Context(), authContext, *req.ParentID); err != nil {
			return err
		}
	}

	newCompany, err := h.service.CreateCompany(c.Context(), req, authContext.TenantID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newCompany)
}

// GetCompany retrieves a company by ID
// GET /api/companies/:id
func (h *Handlers) GetCompany(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}

	result, err := h.service.GetCompany(c.Context(), authContext.TenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ListCompanies lists companies
// GET /api/companies?query=&status=&parent_id=&page=&page_size=&order_by=&order_dir=
func (h *Handlers) ListCompanies(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	req := company.ListCompaniesRequest{
		Query:      c.Query("query"),
		Status:     company.CompanyStatus(strings.ToUpper(c.Query("status"))),
		Pagination: parsePaginationOptions(c),
	}
	if parent := c.Query("parent_id"); parent != "" {
		parentID := kernel.CompanyID(parent)
		req.ParentID = &parentID
	}

	visible, err := h.service.Visible(c.Context(), authContext)
	if err != nil {
		return err
	}

	result, err := h.service.ListCompanies(c.Context(), authContext.TenantID, req, visible)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateCompany edits a company
// PUT /api/companies/:id
func (h *Handlers) UpdateCompany(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}

	var req company.UpdateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return company.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}

	if authContext.IsCompanyBound() {
		// The bound company cannot be re-parented by its own staff
		if id == *authContext.CompanyID && (req.ParentID != nil || req.DetachParent) {
			return auth.ErrInsufficientScope().WithDetail("field", "parent_id")
		}
		if req.DetachParent {
			return auth.ErrInsufficientScope().WithDetail("field", "detach_parent")
		}
		if req.ParentID != nil {
			if err := h.service.CheckAccess(c.Context(), authContext, *req.ParentID); err != nil {
				return err
			}
		}
	}

	updated, err := h.service.UpdateCompany(c.Context(), authContext.TenantID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// ActivateCompany
// POST /api/companies/:id/activate
func (h *Handlers) ActivateCompany(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}
	result, err := h.service.ActivateCompany(c.Context(), authContext.TenantID, id, authContext.Actor())
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// SuspendCompany
// POST /api/companies/:id/suspend
func (h *Handlers) SuspendCompany(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}
	result, err := h.service.SuspendCompany(c.Context(), authContext.TenantID, id, authContext.Actor())
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ArchiveCompany
// POST /api/companies/:id/archive
func (h *Handlers) ArchiveCompany(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}
	result, err := h.service.ArchiveCompany(c.Context(), authContext.TenantID, id, authContext.Actor())
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetTree returns the subcontracting tree
// GET /api/companies/tree and GET /api/companies/:id/tree
func (h *Handlers) GetTree(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	var root *kernel.CompanyID
	if param := c.Params("id"); param != "" {
		id := kernel.CompanyID(param)
		root = &id
	} else if authContext.IsCompanyBound() {
		root = authContext.CompanyID
	}
	if root != nil {
		if err := h.service.CheckAccess(c.Context(), authContext, *root); err != nil {
			return err
		}
	}

	tree, err := h.service.GetTree(c.Context(), authContext.TenantID, root)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": tree})
}

// GetStats
// GET /api/companies/:id/stats
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	authContext, id, err := h.authorize(c)
	if err != nil {
		return err
	}
	stats, err := h.service.GetStats(c.Context(), authContext.TenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// authorize reads :id and checks the principal may act on it
func (h *Handlers) authorize(c *fiber.Ctx) (*auth.AuthContext, kernel.CompanyID, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return nil, "", auth.ErrMissingToken()
	}
	id := kernel.CompanyID(c.Params("id"))
	if id.IsEmpty() {
		return nil, "", company.ErrCompanyNotFound().WithDetail("id", "missing or empty")
	}
	if err := h.service.CheckAccess(c.Context(), authContext, id); err != nil {
		return nil, "", err
	}
	return authContext, id, nil
}

func parsePaginationOptions(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
		OrderBy:  c.Query("order_by"),
		OrderDir: kernel.SortDirection(strings.ToUpper(c.Query("order_dir"))),
	}.Sanitize()
}

// RegisterRoutes registers all company routes
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware *auth.TokenMiddleware) {
	api := app.Group("/api/companies", authMiddleware.Authenticate())

	// Read routes
	api.Get("/",
		authMiddleware.RequireScope(auth.ScopeCompaniesRead),
		handlers.ListCompanies,
	)
	api.Get("/tree",
		authMiddleware.RequireScope(auth.ScopeCompaniesRead),
		handlers.GetTree,
	)
	api.Get("/:id",
		authMiddleware.RequireScope(auth.ScopeCompaniesRead),
		handlers.GetCompany,
	)
	api.Get("/:id/tree",
		authMiddleware.RequireScope(auth.ScopeCompaniesRead),
		handlers.GetTree,
	)
	api.Get("/:id/stats",
		authMiddleware.RequireScope(auth.ScopeCompaniesRead),
		handlers.GetStats,
	)

	// Write routes
	api.Post("/",
		authMiddleware.RequireScope(auth.ScopeCompaniesWrite),
		handlers.CreateCompany,
	)
	api.Put("/:id",
		authMiddleware.RequireScope(auth.ScopeCompaniesWrite),
		handlers.UpdateCompany,
	)

	// Status routes
	api.Post("/:id/activate",
		authMiddleware.RequireScope(auth.ScopeCompaniesStatus),
		handlers.ActivateCompany,
	)
	api.Post("/:id/suspend",
		authMiddleware.RequireScope(auth.ScopeCompaniesStatus),
		handlers.SuspendCompany,
	)
	api.Post("/:id/archive",
		authMiddleware.RequireScope(auth.ScopeCompaniesStatus),
		handlers.ArchiveCompany,
	)
}
