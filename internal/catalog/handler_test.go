package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bissquit/statuspage/internal/catalog"
	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/store/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	catalog.NewHandler(catalog.NewService(memory.New())).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func createService(t *testing.T, h http.Handler, orgID, body string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/organizations/"+orgID+"/services", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := decodeData(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHandler_CreateAndList(t *testing.T) {
	router := newRouter()
	orgID := domain.NewID()

	createService(t, router, orgID, `{"name":"API","description":"REST"}`)
	createService(t, router, orgID, `{"name":"Web","status":"DEGRADED"}`)

	rec := do(t, router, http.MethodGet, "/organizations/"+orgID+"/services", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Service `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "API", body.Data[0].Name)
	assert.Equal(t, domain.ServiceStatusOperational, body.Data[0].Status)
	assert.Equal(t, domain.ServiceStatusDegraded, body.Data[1].Status)
}

func TestHandler_CreateValidation(t *testing.T) {
	router := newRouter()

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/organizations/"+domain.NewID()+"/services", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/organizations/"+domain.NewID()+"/services", `{"name":"API","status":"BROKEN"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/organizations/not-a-uuid/services", `{"name":"API"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/organizations/"+domain.NewID()+"/services", `not json`).Code)
}

func TestHandler_PatchKeepsOmittedFields(t *testing.T) {
	router := newRouter()
	id := createService(t, router, domain.NewID(), `{"name":"API","description":"REST"}`)

	rec := do(t, router, http.MethodPatch, "/services/"+id, `{"status":"MAJOR_OUTAGE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "MAJOR_OUTAGE", data["status"])
	assert.Equal(t, "API", data["name"])
	assert.Equal(t, "REST", data["description"])
	assert.NotNil(t, data["updated_at"])

	rec = do(t, router, http.MethodPut, "/services/"+id, `{"description":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Nil(t, data["description"])
	assert.Equal(t, "MAJOR_OUTAGE", data["status"])

	rec = do(t, router, http.MethodPatch, "/services/"+id, `{"name":null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteTwice(t *testing.T) {
	router := newRouter()
	id := createService(t, router, domain.NewID(), `{"name":"API"}`)

	rec := do(t, router, http.MethodDelete, "/services/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["deleted"])

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/services/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/services/"+id, "").Code)
}
