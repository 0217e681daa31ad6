package statuspage_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/bissquit/statuspage/internal/statuspage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newRouter(f *fixture, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	statuspage.NewHandler(f.status).RegisterRoutes(r, httputil.RateLimitMiddleware(limiter))
	return r
}

func TestHandler_GetPublicStatus(t *testing.T) {
	f := newFixture()
	f.seedAcme(t)
	router := newRouter(f, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/status/acme", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Organization struct {
				Slug string `json:"slug"`
			} `json:"organization"`
			Services  []map[string]any `json:"services"`
			Incidents []map[string]any `json:"incidents"`
			Summary   struct {
				OverallStatus string `json:"overall_status"`
				OpenIncidents int    `json:"open_incidents"`
			} `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "acme", body.Data.Organization.Slug)
	assert.Len(t, body.Data.Services, 1)
	assert.Len(t, body.Data.Incidents, 1)
	assert.Equal(t, "OPERATIONAL", body.Data.Summary.OverallStatus)
	assert.Equal(t, 1, body.Data.Summary.OpenIncidents)
}

func TestHandler_GetPublicStatusNotFound(t *testing.T) {
	router := newRouter(newFixture(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/status/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RateLimited(t *testing.T) {
	f := newFixture()
	f.seedAcme(t)
	router := newRouter(f, rate.NewLimiter(rate.Every(time.Hour), 1))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/public/status/acme", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/public/status/acme", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}
