package taxidapi

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/Abraxas-365/cae/pkg/taxid"
	"github.com/gofiber/fiber/v2"
)

var ErrRegistry = errx.NewRegistry("TAXID")

var CodeInvalidRequest = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid tax ID request")

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

// ValidateRequest - kind is company, person or any; empty means any
type ValidateRequest struct {
	Value string      `json:"value"`
	Kind  taxid.Class `json:"kind"`
}

type ValidateResponse struct {
	Valid      bool       `json:"valid"`
	Kind       taxid.Kind `json:"kind"`
	Normalized string     `json:"normalized"`
	Message    string     `json:"message"`
}

type Handlers struct {
	metrics *metrics.Metrics
}

func NewHandlers(m *metrics.Metrics) *Handlers {
	return &Handlers{metrics: m}
}

// Validate checks an identifier as a form field would
// POST /api/taxid/validate
func (h *Handlers) Validate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrInvalidRequest().WithDetail("parse_error", err.Error())
	}
	req.Kind = taxid.Class(strings.ToLower(string(req.Kind)))
	if req.Kind == "" {
		req.Kind = taxid.ClassAny
	}
	if !req.Kind.IsValid() {
		return ErrInvalidRequest().WithDetail("kind", string(req.Kind))
	}

	kind, valid := taxid.Check(req.Value, req.Kind)
	h.metrics.ObserveTaxID(string(req.Kind), valid)

	return c.JSON(ValidateResponse{
		Valid:      valid,
		Kind:       kind,
		Normalized: taxid.Normalize(req.Value),
		Message:    i18n.T(locale(c), messageKey(req.Kind, kind, valid)),
	})
}

func messageKey(class taxid.Class, kind taxid.Kind, valid bool) i18n.Key {
	switch {
	case valid && kind == taxid.KindCIF:
		return i18n.KeyValidCompanyTaxID
	case valid:
		return i18n.KeyValidPersonID
	case class == taxid.ClassCompany:
		return i18n.KeyInvalidCompanyTaxID
	case class == taxid.ClassPerson:
		return i18n.KeyInvalidPersonID
	default:
		return i18n.KeyInvalidTaxID
	}
}

func locale(c *fiber.Ctx) i18n.Locale {
	if l := c.Query("locale"); l != "" {
		return i18n.ParseLocale(l)
	}
	return i18n.ParseLocale(c.Get(fiber.HeaderAcceptLanguage))
}

// RegisterRoutes registers the public validation route
func RegisterRoutes(app *fiber.App, handlers *Handlers) {
	app.Post("/api/taxid/validate", handlers.Validate)
}
