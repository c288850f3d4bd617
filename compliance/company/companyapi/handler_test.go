package companyapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyapi"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
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

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens := auth.NewJWTService("test", time.Hour, "cae")
	svc := companysrv.NewCompanyService(companyinfra.NewMemoryCompanyRepository(), nil, audit.NewRecorder(8))

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if e, ok := errx.As(err); ok {
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
	companyapi.RegisterRoutes(app, companyapi.NewHandlers(svc), auth.NewAuthMiddleware(tokens))
	return &harness{app: app, tokens: tokens}
}

func (h *harness) token(t *testing.T, role user.Role, companyID *kernel.CompanyID) string {
	t.Helper()
	u := &user.User{Role: role}
	tok, _, err := h.tokens.GenerateAccessToken(auth.TokenClaims{
		UserID:    "u-1",
		TenantID:  "t1",
		Role:      role,
		CompanyID: companyID,
		Scopes:    auth.ScopesFor(u),
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

func TestCreateAndGetCompany(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, user.RoleAdmin, nil)

	status, body := h.do(t, http.MethodPost, "/api/companies", admin, `{"name":"Obras Sur","tax_id":"b 1234567-4"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var created company.Company
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, kernel.TaxID("B12345674"), created.TaxID)

	status, _ = h.do(t, http.MethodGet, "/api/companies/"+created.ID.String(), admin, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPost, "/api/companies", admin, `{"name":"Bad","tax_id":"B1234567X"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "COMPANY_INVALID_TAX_ID")
}

func TestCompanyUserConfinedToSubtree(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, user.RoleAdmin, nil)

	_, body := h.do(t, http.MethodPost, "/api/companies", admin, `{"name":"Main","tax_id":"A58818501"}`)
	var main company.Company
	require.NoError(t, json.Unmarshal(body, &main))

	_, body = h.do(t, http.MethodPost, "/api/companies", admin, `{"name":"Other","tax_id":"C12345674"}`)
	var other company.Company
	require.NoError(t, json.Unmarshal(body, &other))

	bound := h.token(t, user.RoleCompany, &main.ID)

	// creating without a parent places the subcontractor below the bound company
	status, body := h.do(t, http.MethodPost, "/api/companies", bound, `{"name":"Sub","tax_id":"B12345674"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var sub company.Company
	require.NoError(t, json.Unmarshal(body, &sub))
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, main.ID, *sub.ParentID)

	status, _ = h.do(t, http.MethodGet, "/api/companies/"+other.ID.String(), bound, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(t, http.MethodGet, "/api/companies/tree", bound, "")
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), "Other")

	// company users cannot change status
	status, _ = h.do(t, http.MethodPost, "/api/companies/"+sub.ID.String()+"/activate", bound, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(t, http.MethodPost, "/api/companies/"+sub.ID.String()+"/activate", admin, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRequiresToken(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodGet, "/api/companies", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
