package gym

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/gym-membership/internal/config"
)

type pingOK struct{}

func (pingOK) PingContext(context.Context) error { return nil }

func newRouter(cfg config.HTTPServer) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, Services{DB: pingOK{}})
	return r
}

func serve(h http.Handler, method, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, url, nil))
	return w
}

func TestRegisterRoutes(t *testing.T) {
	h := newRouter(config.HTTPServer{RateLimit: 100, RateBurst: 100})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/health").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/plans/abc").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/v1/unknown").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodPatch, "/api/v1/plans/1").Code)

	metrics := serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `gym_http_requests_total{method="GET"`)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/docs/doc.json").Code)
}

func TestRegisterRoutes_RateLimit(t *testing.T) {
	h := newRouter(config.HTTPServer{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/members/abc").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/api/v1/members/abc").Code)
	// health не ограничивается
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/health").Code)
}
