package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv"
	"kasirinaja/dashboard/internal/report"
	"kasirinaja/dashboard/internal/store"
	"kasirinaja/dashboard/internal/view"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected configured origin, got %q", got)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{PIN: "000000"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"pin":"482913","role":"admin"}`)))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/api/v1/products", "/api/v1/reports/dashboard", "/api/v1/view/dashboard"} {
		res := httptest.NewRecorder()
		api.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, res.Code)
		}

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		res = httptest.NewRecorder()
		api.Handler().ServeHTTP(res, req)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for bad token, got %d", path, res.Code)
		}
	}
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	c := newClient(t)
	c.csrf = ""
	res := c.do(http.MethodPost, "/api/v1/products", domain.ProductInput{Name: "Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000})
	expectStatus(t, res, http.StatusForbidden)

	c.csrf = "deadbeef"
	res = c.do(http.MethodDelete, "/api/v1/cart", nil)
	expectStatus(t, res, http.StatusForbidden)

	res = c.do(http.MethodGet, "/api/v1/cart", nil)
	expectStatus(t, res, http.StatusOK)
}

func TestCSRFTokenWindow(t *testing.T) {
	api := newTestAPI(t)
	base := time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)
	api.now = func() time.Time { return base }
	token := api.generateCSRFToken()

	api.now = func() time.Time { return base.Add(time.Hour) }
	if !api.validateCSRFToken(token) {
		t.Fatalf("token from the previous hour must still validate")
	}
	api.now = func() time.Time { return base.Add(2 * time.Hour) }
	if api.validateCSRFToken(token) {
		t.Fatalf("token older than two hours must be rejected")
	}
}

func TestInternalErrorsHideMessage(t *testing.T) {
	res := httptest.NewRecorder()
	writeError(res, http.StatusInternalServerError, errors.New("pq: relation kv_entries does not exist"))

	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Fatalf("expected generic message, got %q", body["error"])
	}
}

func TestStatusForMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{store.ErrValidation, http.StatusBadRequest},
		{report.ErrUnsupported, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{view.ErrUnknownRoute, http.StatusNotFound},
		{store.ErrInsufficientStock, http.StatusConflict},
		{store.ErrStockExceeded, http.StatusConflict},
		{store.ErrOutOfStock, http.StatusConflict},
		{store.ErrInsufficientPayment, http.StatusPaymentRequired},
		{store.ErrEmptyCart, http.StatusUnprocessableEntity},
		{backup.ErrNothingToExport, http.StatusUnprocessableEntity},
		{kv.ErrStorage, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("%w: detail", tc.err)
		if got := statusFor(wrapped); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestClientKey(t *testing.T) {
	cases := map[string]string{
		"10.0.0.7:4431":  "10.0.0.7",
		"[::1]:8080":     "::1",
		"":               "unknown",
		"localhost:9000": "localhost",
	}
	for remote, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = remote
		if got := clientKey(req); got != want {
			t.Fatalf("%q: expected %q, got %q", remote, want, got)
		}
	}
}
