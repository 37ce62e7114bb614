package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localmart-app/localmart-backend/pkg/config"
)

func testDeps() Deps {
	return Deps{
		Config: &config.Config{
			App: config.AppConfig{Env: "test"},
			JWT: config.JWTConfig{
				Secret:            "test-secret",
				Issuer:            "localmart-test",
				ExpirationMinutes: 15,
			},
		},
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := NewRouter(testDeps())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := NewRouter(testDeps())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/vendor/orders"},
		{http.MethodGet, "/api/v1/agent/orders/queue"},
		{http.MethodGet, "/api/v1/vendor/earnings"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestMetricsRouteOnlyWithGatherer(t *testing.T) {
	router := NewRouter(testDeps())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without gatherer: status = %d, want 404", rec.Code)
	}
}
