package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ordersheet/backend/internal/config"
	"github.com/ordersheet/backend/internal/csvio"
	"github.com/ordersheet/backend/internal/logger"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Initialize("development")

	api := &API{Cfg: config.Config{
		DefaultCountryCode: "US",
		GiftLineTitle:      "Gift Package",
		GiftLinePrice:      "0.00",
	}}

	r := gin.New()
	api.RegisterRoutes(r)
	return r
}

func TestHealthz(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDownloadTemplate_CSV(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/templates/orders", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	rows, err := csvio.ReadAll(w.Body.String())
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("template should be header + example row, got %d rows", len(rows))
	}
	// required columns lead the header
	want := []string{"order_key", "email", "variant_id", "quantity"}
	for i, col := range want {
		if rows[0][i] != col {
			t.Fatalf("header = %v", rows[0])
		}
	}
}

func TestDownloadTemplate_XLSX(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/templates/addresses?format=xlsx", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	rows, err := csvio.ReadXLSX(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("parse xlsx template: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "first_name" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestDownloadTemplate_UnknownVariant(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/templates/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestShopParamValidation(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags/suggest?shop=evil.example.com", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
