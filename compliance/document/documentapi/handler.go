package documentapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/document/documentsrv"
	"github.com/Abraxas-365/cae/pkg/fsx"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type Handlers struct {
	service   *documentsrv.Service
	companies *companysrv.CompanyService
}

func NewHandlers(service *documentsrv.Service, companies *companysrv.CompanyService) *Handlers {
	return &Handlers{
		service:   service,
		companies: companies,
	}
}

// UploadDocument stores a file and queues it for automatic validation
// POST /api/documents (multipart: file, owner_type, owner_id, type, issued_at, expires_at)
func (h *Handlers) UploadDocument(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	file, err := c.FormFile("file")
	if err != nil {
		return document.ErrInvalidRequest().WithDetail("file", "required")
	}

	req := document.UploadRequest{
		OwnerType:  document.OwnerType(strings.ToUpper(c.FormValue("owner_type"))),
		OwnerID:    c.FormValue("owner_id"),
		Type:       document.DocumentType(strings.ToUpper(c.FormValue("type"))),
		FileName:   file.Filename,
		FileSize:   file.Size,
		UploadedBy: authContext.Actor(),
	}
	if req.OwnerID == "" {
		return document.ErrInvalidRequest().WithDetail("owner_id", "required")
	}
	if req.IssuedAt, err = parseDate(c.FormValue("issued_at")); err != nil {
		return document.ErrInvalidRequest().WithDetail("issued_at", err.Error())
	}
	if req.ExpiresAt, err = parseDate(c.FormValue("expires_at")); err != nil {
		return document.ErrInvalidRequest().WithDetail("expires_at", err.Error())
	}

	companyID, _, err := h.service.ResolveOwner(c.Context(), authContext.TenantID, req.OwnerType, req.OwnerID)
	if err != nil {
		return err
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, companyID); err != nil {
		return err
	}

	content, err := file.Open()
	if err != nil {
		return document.ErrStorageFailed(err).WithDetail("file", "failed to open upload")
	}
	defer content.Close()

	doc, err := h.service.Upload(c.Context(), authContext.TenantID, req, content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// GetDocument
// GET /api/documents/:id
func (h *Handlers) GetDocument(c *fiber.Ctx) error {
	_, doc, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// DownloadDocument streams the stored file
// GET /api/documents/:id/download
func (h *Handlers) DownloadDocument(c *fiber.Ctx) error {
	authContext, doc, err := h.load(c)
	if err != nil {
		return err
	}
	rc, _, err := h.service.Download(c.Context(), authContext.TenantID, doc.ID)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fsx.ContentType(doc.FileName))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
	// fasthttp closes rc once the body is written
	return c.SendStream(rc, int(doc.FileSize))
}

// ListDocuments
// GET /api/documents?company_id=&owner_type=&owner_id=&type=&status=&expiring_before=&include_superseded=&page=&page_size=
func (h *Handlers) ListDocuments(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	req := document.ListDocumentsRequest{
		OwnerType:  document.OwnerType(strings.ToUpper(c.Query("owner_type"))),
		OwnerID:    c.Query("owner_id"),
		Type:       document.DocumentType(strings.ToUpper(c.Query("type"))),
		Status:     document.DocumentStatus(strings.ToUpper(c.Query("status"))),
		IncludeOld: c.QueryBool("include_superseded", false),
		Pagination: parsePaginationOptions(c),
	}
	if companyID := c.Query("company_id"); companyID != "" {
		id := kernel.CompanyID(companyID)
		req.CompanyID = &id
	}
	before, err := parseDate(c.Query("expiring_before"))
	if err != nil {
		return document.ErrInvalidRequest().WithDetail("expiring_before", err.Error())
	}
	req.ExpiringBefore = before

	visible, err := h.companies.Visible(c.Context(), authContext)
	if err != nil {
		return err
	}

	result, err := h.service.ListDocuments(c.Context(), authContext.TenantID, req, visible)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ApproveDocument
// POST /api/documents/:id/approve
func (h *Handlers) ApproveDocument(c *fiber.Ctx) error {
	authContext, doc, err := h.load(c)
	if err != nil {
		return err
	}

	var body struct {
		ExpiresAt string `json:"expires_at"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return document.ErrInvalidRequest().WithDetail("parse_error", err.Error())
		}
	}
	expiresAt, err := parseDate(body.ExpiresAt)
	if err != nil {
		return document.ErrInvalidRequest().WithDetail("expires_at", err.Error())
	}

	result, err := h.service.Approve(c.Context(), authContext.TenantID, doc.ID, authContext.Actor(), document.ApproveRequest{ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// RejectDocument
// POST /api/documents/:id/reject
func (h *Handlers) RejectDocument(c *fiber.Ctx) error {
	authContext, doc, err := h.load(c)
	if err != nil {
		return err
	}

	var req document.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return document.ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}

	result, err := h.service.Reject(c.Context(), authContext.TenantID, doc.ID, authContext.Actor(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// RetryValidation re-queues a document left PENDING
// POST /api/documents/:id/retry
func (h *Handlers) RetryValidation(c *fiber.Ctx) error {
	authContext, doc, err := h.load(c)
	if err != nil {
		return err
	}
	result, err := h.service.RetryValidation(c.Context(), authContext.TenantID, doc.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(result)
}

// SweepExpired runs the expiry sweep now instead of waiting for the worker
// POST /api/documents/expire
func (h *Handlers) SweepExpired(c *fiber.Ctx) error {
	n, err := h.service.SweepExpired(c.Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"expired": n})
}

// ListTypes returns the document catalog with localized labels
// GET /api/documents/types?locale=
func (h *Handlers) ListTypes(c *fiber.Ctx) error {
	return c.JSON(documentsrv.Catalog(locale(c)))
}

// GetCompliance summarizes the required documents of a company or worker
// GET /api/documents/compliance/:ownerType/:ownerId
func (h *Handlers) GetCompliance(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	ownerType := document.OwnerType(strings.ToUpper(c.Params("ownerType")))
	ownerID := c.Params("ownerId")
	companyID, _, err := h.service.ResolveOwner(c.Context(), authContext.TenantID, ownerType, ownerID)
	if err != nil {
		return err
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, companyID); err != nil {
		return err
	}

	summary, err := h.service.Summary(c.Context(), authContext.TenantID, ownerType, ownerID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// load reads :id and checks the principal may see the owning company
func (h *Handlers) load(c *fiber.Ctx) (*auth.AuthContext, *document.Document, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return nil, nil, auth.ErrMissingToken()
	}
	id := kernel.DocumentID(c.Params("id"))
	if id.IsEmpty() {
		return nil, nil, document.ErrDocumentNotFound().WithDetail("id", "missing or empty")
	}
	doc, err := h.service.GetDocument(c.Context(), authContext.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := h.companies.CheckAccess(c.Context(), authContext, doc.CompanyID); err != nil {
		return nil, nil, err
	}
	return authContext, doc, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
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

// RegisterRoutes registers all document routes
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware *auth.TokenMiddleware) {
	api := app.Group("/api/documents", authMiddleware.Authenticate())

	// Catalog and compliance, before /:id
	api.Get("/types",
		authMiddleware.RequireScope(auth.ScopeDocumentsRead),
		handlers.ListTypes,
	)
	api.Get("/compliance/:ownerType/:ownerId",
		authMiddleware.RequireScope(auth.ScopeDocumentsRead),
		handlers.GetCompliance,
	)
	api.Post("/expire",
		authMiddleware.RequireScope(auth.ScopeDocumentsExpire),
		handlers.SweepExpired,
	)

	// Read routes
	api.Get("/",
		authMiddleware.RequireScope(auth.ScopeDocumentsRead),
		handlers.ListDocuments,
	)
	api.Get("/:id",
		authMiddleware.RequireScope(auth.ScopeDocumentsRead),
		handlers.GetDocument,
	)
	api.Get("/:id/download",
		authMiddleware.RequireScope(auth.ScopeDocumentsRead),
		handlers.DownloadDocument,
	)

	// Upload
	api.Post("/",
		authMiddleware.RequireScope(auth.ScopeDocumentsUpload),
		handlers.UploadDocument,
	)
	api.Post("/:id/retry",
		authMiddleware.RequireScope(auth.ScopeDocumentsUpload, auth.ScopeDocumentsReview),
		handlers.RetryValidation,
	)

	// Manual review
	api.Post("/:id/approve",
		authMiddleware.RequireScope(auth.ScopeDocumentsReview),
		handlers.ApproveDocument,
	)
	api.Post("/:id/reject",
		authMiddleware.RequireScope(auth.ScopeDocumentsReview),
		handlers.RejectDocument,
	)
}
