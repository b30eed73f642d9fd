package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/cloud-architect-quest/internal/logging"
	"github.com/gokatarajesh/cloud-architect-quest/internal/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type echoRoutes struct{}

func (echoRoutes) Routes(r chi.Router) {
	r.Get("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouterServesHealthMetricsAndRoutes(t *testing.T) {
	m := metrics.New()
	h := NewRouter(zerolog.Nop(), Options{Metrics: m.Handler()}, echoRoutes{})

	rec := serve(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quest_sessions_active")

	assert.Equal(t, http.StatusTeapot, serve(h, "/v1/echo").Code)
	assert.NotEmpty(t, serve(h, "/healthz").Header().Get("Content-Type"))
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	ok := NewRouter(zerolog.Nop(), Options{Dependencies: map[string]Pinger{
		"catalog": pingFunc(func(context.Context) error { return nil }),
	}})
	assert.Equal(t, http.StatusOK, serve(ok, "/readyz").Code)

	down := NewRouter(zerolog.Nop(), Options{Dependencies: map[string]Pinger{
		"catalog": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}})
	rec := serve(down, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog unavailable")
}

func TestReadyzLogsFailureWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("quest", "test", logging.Options{Format: "json", Out: &buf})
	h := NewRouter(logger, Options{Dependencies: map[string]Pinger{
		"catalog": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}})

	rec := serve(h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, buf.String(), "dependency ping failed")
	assert.Contains(t, buf.String(), `"dependency":"catalog"`)
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), `"request_id"`)
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	h := NewRouter(zerolog.Nop(), Options{}, routesFunc(func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	}))
	assert.Equal(t, http.StatusInternalServerError, serve(h, "/boom").Code)
}

type routesFunc func(r chi.Router)

func (f routesFunc) Routes(r chi.Router) { f(r) }

func TestUpgraderOriginCheck(t *testing.T) {
	up := NewUpgrader([]string{"https://quest.example/", " http://localhost:3000 "})

	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://quest.example", true},
		{"http://localhost:3000", true},
		{"http://api.internal:8080", true},
		{"https://evil.example", false},
		{"://bad", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://api.internal:8080/ws/sessions/x", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.want, up.CheckOrigin(req), tc.origin)
	}
}
