package workerapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workerapi"
	"github.com/Abraxas-365/cae/compliance/worker/workerinfra"
	"github.com/Abraxas-365/cae/compliance/worker/workersrv"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	app    *fiber.App
	tokens *auth.JWTService
}

func newHarness(t *testing.T, companies ...company.Company) *harness {
	t.Helper()
	companyRepo := companyinfra.NewMemoryCompanyRepository()
	for i := range companies {
		require.NoError(t, companyRepo.Create(context.Background(), &companies[i]))
	}
	workerRepo := workerinfra.NewMemoryWorkerRepository()
	companySvc := companysrv.NewCompanyService(companyRepo, workerRepo, audit.NewRecorder(8))
	workerSvc := workersrv.NewWorkerService(workerRepo, companyRepo)

	tokens := auth.NewJWTService("test", time.Hour, "cae")
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if e, ok := errx.As(err); ok {
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
	workerapi.RegisterRoutes(app, workerapi.NewHandlers(workerSvc, companySvc), auth.NewAuthMiddleware(tokens))
	return &harness{app: app, tokens: tokens}
}

func (h *harness) token(t *testing.T, role user.Role, companyID *kernel.CompanyID) string {
	t.Helper()
	tok, _, err := h.tokens.GenerateAccessToken(auth.TokenClaims{
		UserID:    "u-1",
		TenantID:  "t1",
		Role:      role,
		CompanyID: companyID,
		Scopes:    auth.ScopesFor(&user.User{Role: role}),
	})
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func fixtures() []company.Company {
	main := kernel.CompanyID("c-main")
	return []company.Company{
		{ID: "c-main", TenantID: "t1", Name: "Main", TaxID: "A58818501", Status: company.CompanyStatusActive},
		{ID: "c-sub", TenantID: "t1", ParentID: &main, Name: "Sub", TaxID: "B12345674", Status: company.CompanyStatusActive},
		{ID: "c-other", TenantID: "t1", Name: "Other", TaxID: "C12345674", Status: company.CompanyStatusActive},
	}
}

func TestCreateWorkerDefaultsToBoundCompany(t *testing.T) {
	h := newHarness(t, fixtures()...)
	main := kernel.CompanyID("c-main")
	bound := h.token(t, user.RoleCompany, &main)

	status, body := h.do(t, http.MethodPost, "/api/workers", bound,
		`{"first_name":"Ana","last_name":"Ruiz","person_id":"12345678-z"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var created worker.Worker
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, main, created.CompanyID)
	assert.Equal(t, kernel.PersonID("12345678Z"), created.PersonID)

	status, body = h.do(t, http.MethodPost, "/api/workers", bound,
		`{"first_name":"Bad","last_name":"Id","person_id":"12345678A"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "WORKER_INVALID_PERSON_ID")
}

func TestCompanyUserCannotTouchOtherCompanies(t *testing.T) {
	h := newHarness(t, fixtures()...)
	admin := h.token(t, user.RoleAdmin, nil)
	main := kernel.CompanyID("c-main")
	bound := h.token(t, user.RoleCompany, &main)

	status, body := h.do(t, http.MethodPost, "/api/workers", admin,
		`{"company_id":"c-other","first_name":"Luis","last_name":"Gil","person_id":"X0000000T"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var outsider worker.Worker
	require.NoError(t, json.Unmarshal(body, &outsider))

	status, _ = h.do(t, http.MethodGet, "/api/workers/"+outsider.ID.String(), bound, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(t, http.MethodGet, "/api/workers/by-person-id/X0000000T", bound, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodPost, "/api/workers", bound,
		`{"company_id":"c-other","first_name":"A","last_name":"B","person_id":"87654321X"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestListMasksSubcontractorStaff(t *testing.T) {
	h := newHarness(t, fixtures()...)
	admin := h.token(t, user.RoleAdmin, nil)
	main := kernel.CompanyID("c-main")
	bound := h.token(t, user.RoleCompany, &main)

	for _, body := range []string{
		`{"company_id":"c-main","first_name":"Own","last_name":"Staff","person_id":"12345678Z"}`,
		`{"company_id":"c-sub","first_name":"Sub","last_name":"Staff","person_id":"87654321X"}`,
		`{"company_id":"c-other","first_name":"Not","last_name":"Visible","person_id":"00000000T"}`,
	} {
		status, resp := h.do(t, http.MethodPost, "/api/workers", admin, body)
		require.Equal(t, http.StatusCreated, status, string(resp))
	}

	status, body := h.do(t, http.MethodGet, "/api/workers?order_by=last_name&order_dir=asc", bound, "")
	require.Equal(t, http.StatusOK, status)

	var page kernel.Paginated[worker.Worker]
	require.NoError(t, json.Unmarshal(body, &page))
	require.Equal(t, 2, page.Page.Total)

	ids := map[kernel.CompanyID]kernel.PersonID{}
	for _, w := range page.Items {
		ids[w.CompanyID] = w.PersonID
	}
	assert.Equal(t, kernel.PersonID("12345678Z"), ids["c-main"])
	assert.Equal(t, kernel.PersonID("*****321X"), ids["c-sub"])
}

func TestDeactivateAndDeleteScopes(t *testing.T) {
	h := newHarness(t, fixtures()...)
	admin := h.token(t, user.RoleAdmin, nil)
	coordinator := h.token(t, user.RoleCoordinator, nil)

	_, body := h.do(t, http.MethodPost, "/api/workers", admin,
		`{"company_id":"c-main","first_name":"Ana","last_name":"Ruiz","person_id":"12345678Z"}`)
	var w worker.Worker
	require.NoError(t, json.Unmarshal(body, &w))

	status, _ := h.do(t, http.MethodPost, "/api/workers/"+w.ID.String()+"/deactivate", coordinator, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(t, http.MethodPost, "/api/workers/"+w.ID.String()+"/deactivate", admin, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"INACTIVE"`)

	status, _ = h.do(t, http.MethodDelete, "/api/workers/"+w.ID.String(), admin, "")
	assert.Equal(t, http.StatusNoContent, status)
}
