package dashboardapi

import (
	"time"

	"github.com/Abraxas-365/cae/compliance/dashboard/dashboardsrv"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *dashboardsrv.DashboardService
}

func NewHandlers(service *dashboardsrv.DashboardService) *Handlers {
	return &Handlers{service: service}
}

// GetOverview
// GET /api/dashboard?days=30
func (h *Handlers) GetOverview(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return auth.ErrMissingToken()
	}

	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		return errx.New("days must be between 1 and 365", errx.TypeValidation).WithDetail("days", days)
	}

	overview, err := h.service.GetOverview(c.Context(), authContext.TenantID, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// RegisterRoutes registers the dashboard route
func RegisterRoutes(app *fiber.App, handlers *Handlers, authMiddleware *auth.TokenMiddleware) {
	app.Get("/api/dashboard",
		authMiddleware.Authenticate(),
		authMiddleware.RequireScope(auth.ScopeDashboardView),
		handlers.GetOverview,
	)
}
