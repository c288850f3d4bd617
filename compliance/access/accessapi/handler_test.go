package accessapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/access/accessapi"
	"github.com/Abraxas-365/cae/compliance/access/accessinfra"
	"github.com/Abraxas-365/cae/compliance/access/accesssrv"
	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workerinfra"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allCompliant struct{}

func (allCompliant) Summary(_ context.Context, _ kernel.TenantID, ownerType document.OwnerType, ownerID string) (*document.ComplianceSummary, error) {
	required := document.RequiredFor(ownerType)
	return &document.ComplianceSummary{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Status:    document.Compliant,
		Required:  required,
		Valid:     required,
	}, nil
}

type harness struct {
	app    *fiber.App
	tokens *auth.JWTService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	main := kernel.CompanyID("c-main")

	companyRepo := companyinfra.NewMemoryCompanyRepository()
	for _, c := range []company.Company{
		{ID: "c-main", TenantID: "t1", Name: "Main", TaxID: "A58818501", Status: company.CompanyStatusActive},
		{ID: "c-sub", TenantID: "t1", ParentID: &main, Name: "Sub", TaxID: "B12345674", Status: company.CompanyStatusActive},
		{ID: "c-other", TenantID: "t1", Name: "Other", TaxID: "C12345674", Status: company.CompanyStatusActive},
	} {
		require.NoError(t, companyRepo.Create(ctx, &c))
	}
	workerRepo := workerinfra.NewMemoryWorkerRepository()
	for _, w := range []worker.Worker{
		{ID: "w-main", TenantID: "t1", CompanyID: "c-main", PersonID: "12345678Z", Status: worker.WorkerStatusActive},
		{ID: "w-sub", TenantID: "t1", CompanyID: "c-sub", PersonID: "00000000T", Status: worker.WorkerStatusActive},
		{ID: "w-other", TenantID: "t1", CompanyID: "c-other", PersonID: "87654321X", Status: worker.WorkerStatusActive},
	} {
		require.NoError(t, workerRepo.Create(ctx, &w))
	}

	companySvc := companysrv.NewCompanyService(companyRepo, workerRepo, audit.NewRecorder(8))
	accessSvc := accesssrv.NewAccessService(accessinfra.NewMemoryAccessRepository(), workerRepo, companyRepo, allCompliant{}, audit.NewRecorder(64), nil)

	tokens := auth.NewJWTService("test", time.Hour, "cae")
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if e, ok := errx.As(err); ok {
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
	accessapi.RegisterRoutes(app, accessapi.NewHandlers(accessSvc, companySvc), auth.NewAuthMiddleware(tokens))
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

func (h *harness) do(t *testing.T, method, path, token, body string, headers ...string) (int, []byte) {
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
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (h *harness) register(t *testing.T, token, personID, direction string) access.DecisionResponse {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/api/access", token,
		`{"person_id":"`+personID+`","site_id":"site-1","direction":"`+direction+`"}`,
		fiber.HeaderAcceptLanguage, "en-GB,en;q=0.9")
	require.Equal(t, http.StatusCreated, status, string(body))
	var out access.DecisionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRegisterAccess(t *testing.T) {
	h := newHarness(t)
	coordinator := h.token(t, user.RoleCoordinator, nil)

	granted := h.register(t, coordinator, "12345678z", "entry")
	assert.Equal(t, access.ResultGranted, granted.Result)
	assert.Empty(t, granted.Message)

	denied := h.register(t, coordinator, "12345678A", "ENTRY")
	assert.Equal(t, access.ResultDenied, denied.Result)
	assert.Equal(t, access.DenyInvalidPersonID, denied.DenyReason)
	assert.Equal(t, "Invalid personal ID", denied.Message)

	status, body := h.do(t, http.MethodPost, "/api/access", coordinator, `{"person_id":"12345678Z","site_id":"site-1","direction":"SIDEWAYS"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "ACCESS_INVALID_DIRECTION")

	main := kernel.CompanyID("c-main")
	status, _ = h.do(t, http.MethodPost, "/api/access", h.token(t, user.RoleCompany, &main), `{"person_id":"12345678Z","site_id":"site-1","direction":"ENTRY"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAccessLogVisibility(t *testing.T) {
	h := newHarness(t)
	coordinator := h.token(t, user.RoleCoordinator, nil)
	main := kernel.CompanyID("c-main")
	bound := h.token(t, user.RoleCompany, &main)

	own := h.register(t, coordinator, "12345678Z", "ENTRY")
	sub := h.register(t, coordinator, "00000000T", "ENTRY")
	other := h.register(t, coordinator, "87654321X", "ENTRY")
	unknown := h.register(t, coordinator, "Y1234567X", "ENTRY")
	assert.Equal(t, access.DenyUnknownWorker, unknown.DenyReason)

	var page kernel.Paginated[access.AccessLog]
	status, body := h.do(t, http.MethodGet, "/api/access", coordinator, "")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 4, page.Page.Total)

	status, body = h.do(t, http.MethodGet, "/api/access?result=granted", bound, "")
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 2, page.Page.Total)

	status, _ = h.do(t, http.MethodGet, "/api/access/"+own.ID.String(), bound, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/api/access/"+sub.ID.String(), bound, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/api/access/"+other.ID.String(), bound, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodGet, "/api/access/"+unknown.ID.String(), bound, "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = h.do(t, http.MethodGet, "/api/access/"+unknown.ID.String(), coordinator, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodGet, "/api/access?from=2020-01-01&to=2019-01-01", coordinator, "")
	assert.Equal(t, http.StatusBadRequest, status, string(body))
	status, _ = h.do(t, http.MethodGet, "/api/access?from=yesterday", coordinator, "")
	assert.Equal(t, http.StatusBadRequest, status)
}
