package taxidapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/Abraxas-365/cae/pkg/taxid"
	"github.com/Abraxas-365/cae/pkg/taxid/taxidapi"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		if e, ok := errx.As(err); ok {
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
	taxidapi.RegisterRoutes(app, taxidapi.NewHandlers(m))
	return app
}

func post(t *testing.T, app *fiber.App, body, lang string) (int, taxidapi.ValidateResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/taxid/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	var out taxidapi.ValidateResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestValidate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	app := newApp(m)

	tests := []struct {
		name       string
		body       string
		lang       string
		valid      bool
		kind       taxid.Kind
		normalized string
		message    string
	}{
		{"company ok", `{"value":"a-5881850-1","kind":"company"}`, "", true, taxid.KindCIF, "A58818501", "CIF válido"},
		{"person as company", `{"value":"12345678Z","kind":"company"}`, "en", false, taxid.KindDNI, "12345678Z", "The company tax ID (CIF) is not valid"},
		{"nie as person", `{"value":"X0000000T","kind":"PERSON"}`, "en", true, taxid.KindNIE, "X0000000T", "Valid personal ID (DNI/NIE)"},
		{"bad checksum any", `{"value":"12345678 a"}`, "es-ES", false, taxid.KindInvalid, "12345678A", "El identificador fiscal no es válido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := post(t, app, tt.body, tt.lang)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.valid, out.Valid)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.normalized, out.Normalized)
			assert.Equal(t, tt.message, out.Message)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaxIDValidations.WithLabelValues("company", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaxIDValidations.WithLabelValues("any", "false")))
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	app := newApp(nil)
	status, _ := post(t, app, `{"value":"A58818501","kind":"passport"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
}
