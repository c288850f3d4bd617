package accessapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/access/accesssrv"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for site access
type Handlers struct {
	service   *accesssrv.AccessService
	companies *companysrv.CompanyService
}

// NewHandlers creates a new access handlers instance
func NewHandlers(service *accesssrv.AccessService, companies *companysrv.CompanyService) *Handlers {
	return &Handlers{
		service:   service,
		companies: companies,
	}
}

// RegisterAccess decides an entry or exit at a gate
// POST /api/access
func (h *Handlers) RegisterAccess(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	var req access.RegisterAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return access.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}

	log, err := h.service.RegisterAccess(c.Context(), authContext.TenantID, req, authContext.Actor())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(access.DecisionResponse{
		AccessLog: *log,
		Message:   accesssrv.Message(locale(c), log),
	})
}

// GetAccessLog retrieves one decision
// GET /api/access/:id
func (h *Handlers) GetAccessLog(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}
	id := kernel.AccessLogID(c.Params("id"))
	if id.IsEmpty() {
		return access.ErrAccessLogNotFound().WithDetail("id", "missing or empty")
	}

	log, err := h.service.GetAccessLog(c.Context(), authContext.TenantID, id)
	if err != nil {
		return err
	}
	if authContext.IsCompanyBound() {
		// Attempts that matched no worker belong to no company
		if log.CompanyID == nil {
			return access.ErrAccessLogNotFound()
		}
		if err := h.companies.CheckAccess(c.Context(), authContext, *log.CompanyID); err != nil {
			return err
		}
	}
	return c.JSON(access.DecisionResponse{
		AccessLog: *log,
		Message:   accesssrv.Message(locale(c), log),
	})
}

// ListAccessLogs lists decisions
// GET /api/access?site_id=&worker_id=&company_id=&direction=&result=&from=&to=&page=&page_size=
func (h *Handlers) ListAccessLogs(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	req := access.ListAccessLogsRequest{
		Direction:  access.Direction(strings.ToUpper(c.Query("direction"))),
		Result:     access.Result(strings.ToUpper(c.Query("result"))),
		Pagination: parsePaginationOptions(c),
	}
	if v := c.Query("site_id"); v != "" {
		id := kernel.SiteID(v)
		req.SiteID = &id
	}
	if v := c.Query("worker_id"); v != "" {
		id := kernel.WorkerID(v)
		req.WorkerID = &id
	}
	if v := c.Query("company_id"); v != "" {
		id := kernel.CompanyID(v)
		req.CompanyID = &id
	}

	var err error
	if req.From, err = parseTime(c.Query("from"), false); err != nil {
		return access.ErrInvalidRequest().WithDetail("from", err.Error())
	}
	if req.To, err = parseTime(c.Query("to"), true); err != nil {
		return access.ErrInvalidRequest().WithDetail("to", err.Error())
	}

	visible, err := h.companies.Visible(c.Context(), authContext)
	if err != nil {
		return err
	}

	result, err := h.service.ListAccessLogs(c.Context(), authContext.TenantID, req, visible)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// parseTime accepts RFC 3339 or a bare date. A bare upper bound covers the whole day.
func parseTime(s string, upper bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func locale(c *fiber.Ctx) i18n.Locale {
	if l := c.Query("locale"); l != "" {
		return i18n.ParseLocale(l)
	}
	return i18n.ParseLocale(c.Get(fiber.HeaderAcceptLanguage))
}

func parsePaginationOptions(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
		OrderBy:  c.Query("order_by"),
		OrderDir: kernel.SortDirection(strings.ToUpper(c.Query("order_dir"))),
	}.Sanitize()
}

// RegisterRoutes registers all access routes
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware *auth.TokenMiddleware) {
	api := app.Group("/api/access", authMiddleware.Authenticate())

	api.Get("/",
		authMiddleware.RequireScope(auth.ScopeAccessRead),
		handlers.ListAccessLogs,
	)
	api.Get("/:id",
		authMiddleware.RequireScope(auth.ScopeAccessRead),
		handlers.GetAccessLog,
	)
	api.Post("/",
		authMiddleware.RequireScope(auth.ScopeAccessRegister),
		handlers.RegisterAccess,
	)
}
