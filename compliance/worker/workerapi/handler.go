package workerapi

import (
	"strings"

	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workersrv"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for contractor personnel
type Handlers struct {
	service   *workersrv.WorkerService
	companies *companysrv.CompanyService
}

// NewHandlers creates a new worker handlers instance
func NewHandlers(service *workersrv.WorkerService, companies *companysrv.CompanyService) *Handlers {
	return &Handlers{
		service:   service,
		companies: companies,
	}
}

// CreateWorker registers a worker
// POST /api/workers
func (h *Handlers) CreateWorker(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	var req worker.CreateWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return worker.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}
	if req.CompanyID.IsEmpty() && authContext.IsCompanyBound() {
		req.CompanyID = *authContext.CompanyID
	}
	if req.CompanyID.IsEmpty() {
		return worker.ErrInvalidRequest().WithDetail("company_id", "required")
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, req.CompanyID); err != nil {
		return err
	}

	newWorker, err := h.service.CreateWorker(c.Context(), req, authContext.TenantID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newWorker)
}

// GetWorker retrieves a worker by ID
// GET /api/workers/:id
func (h *Handlers) GetWorker(c *fiber.Ctx) error {
	authContext, w, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(present(authContext, *w))
}

// GetByPersonID looks a worker up by DNI/NIE in any spelling
// GET /api/workers/by-person-id/:personId
func (h *Handlers) GetByPersonID(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	w, err := h.service.GetByPersonID(c.Context(), authContext.TenantID, kernel.PersonID(c.Params("personId")))
	if err != nil {
		return err
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, w.CompanyID); err != nil {
		// Do not reveal that the ID exists in another company
		return worker.ErrWorkerNotFound()
	}
	return c.JSON(present(authContext, *w))
}

// ListWorkers lists workers
// GET /api/workers?company_id=&query=&status=&page=&page_size=&order_by=&order_dir=
func (h *Handlers) ListWorkers(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	req := worker.ListWorkersRequest{
		Query:      c.Query("query"),
		Status:     worker.WorkerStatus(strings.ToUpper(c.Query("status"))),
		Pagination: parsePaginationOptions(c),
	}
	if companyID := c.Query("company_id"); companyID != "" {
		id := kernel.CompanyID(companyID)
		req.CompanyID = &id
	}

	visible, err := h.companies.Visible(c.Context(), authContext)
	if err != nil {
		return err
	}

	result, err := h.service.ListWorkers(c.Context(), authContext.TenantID, req, visible)
	if err != nil {
		return err
	}
	return c.JSON(kernel.MapPaginated(result, func(w worker.Worker) worker.Worker {
		return present(authContext, w)
	}))
}

// UpdateWorker edits a worker
// PUT /api/workers/:id
func (h *Handlers) UpdateWorker(c *fiber.Ctx) error {
	authContext, w, err := h.load(c)
	if err != nil {
		return err
	}

	var req worker.UpdateWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return worker.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}

	updated, err := h.service.UpdateWorker(c.Context(), authContext.TenantID, w.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// ActivateWorker
// POST /api/workers/:id/activate
func (h *Handlers) ActivateWorker(c *fiber.Ctx) error {
	authContext, w, err := h.load(c)
	if err != nil {
		return err
	}
	result, err := h.service.ActivateWorker(c.Context(), authContext.TenantID, w.ID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DeactivateWorker
// POST /api/workers/:id/deactivate
func (h *Handlers) DeactivateWorker(c *fiber.Ctx) error {
	authContext, w, err := h.load(c)
	if err != nil {
		return err
	}
	result, err := h.service.DeactivateWorker(c.Context(), authContext.TenantID, w.ID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DeleteWorker
// DELETE /api/workers/:id
func (h *Handlers) DeleteWorker(c *fiber.Ctx) error {
	authContext, w, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteWorker(c.Context(), authContext.TenantID, w.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// load reads :id and checks the principal may act on the worker's company
func (h *Handlers) load(c *fiber.Ctx) (*auth.AuthContext, *worker.Worker, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return nil, nil, auth.ErrMissingToken()
	}
	id := kernel.WorkerID(c.Params("id"))
	if id.IsEmpty() {
		return nil, nil, worker.ErrWorkerNotFound().WithDetail("id", "missing or empty")
	}
	w, err := h.service.GetWorker(c.Context(), authContext.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, w.CompanyID); err != nil {
		return nil, nil, err
	}
	return authContext, w, nil
}

// present masks the DNI/NIE of subcontractor staff for company-bound users
func present(ac *auth.AuthContext, w worker.Worker) worker.Worker {
	if ac.IsCompanyBound() && w.CompanyID != *ac.CompanyID {
		w.PersonID = kernel.PersonID(w.PersonID.Mask())
	}
	return w
}

func parsePaginationOptions(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
		OrderBy:  c.Query("order_by"),
		OrderDir: kernel.SortDirection(strings.ToUpper(c.Query("order_dir"))),
	}.Sanitize()
}

// RegisterRoutes registers all worker routes
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware *auth.TokenMiddleware) {
	api := app.Group("/api/workers", authMiddleware.Authenticate())

	// Read routes
	api.Get("/",
		authMiddleware.RequireScope(auth.ScopeWorkersRead),
		handlers.ListWorkers,
	)
	api.Get("/by-person-id/:personId",
		authMiddleware.RequireScope(auth.ScopeWorkersRead),
		handlers.GetByPersonID,
	)
	api.Get("/:id",
		authMiddleware.RequireScope(auth.ScopeWorkersRead),
		handlers.GetWorker,
	)

	// Write routes
	api.Post("/",
		authMiddleware.RequireScope(auth.ScopeWorkersWrite),
		handlers.CreateWorker,
	)
	api.Put("/:id",
		authMiddleware.RequireScope(auth.ScopeWorkersWrite),
		handlers.UpdateWorker,
	)
	api.Post("/:id/activate",
		authMiddleware.RequireScope(auth.ScopeWorkersWrite),
		handlers.ActivateWorker,
	)
	api.Post("/:id/deactivate",
		authMiddleware.RequireScope(auth.ScopeWorkersWrite),
		handlers.DeactivateWorker,
	)
	api.Delete("/:id",
		authMiddleware.RequireScope(auth.ScopeWorkersDelete),
		handlers.DeleteWorker,
	)
}
