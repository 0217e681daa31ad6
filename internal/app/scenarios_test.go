package app_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identitySigningKey = "test-identity-key"

type envelope[T any] struct {
	Data T `json:"data"`
}

type snapshot struct {
	Organization domain.Organization `json:"organization"`
	Services     []domain.Service    `json:"services"`
	Incidents    []domain.Incident   `json:"incidents"`
	Summary      struct {
		OverallStatus string            `json:"overall_status"`
		Label         string            `json:"label"`
		OpenIncidents int               `json:"open_incidents"`
		StatusLabels  map[string]string `json:"status_labels"`
	} `json:"summary"`
}

// uniqueSlug keeps scenarios independent when they share a database.
func uniqueSlug(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func createOrganization(t *testing.T, c *testutil.Client, name, slug, ref string) domain.Organization {
	t.Helper()
	resp, err := c.POST("/api/v1/organizations", map[string]string{
		"name":         name,
		"slug":         slug,
		"external_ref": ref,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body envelope[domain.Organization]
	testutil.DecodeJSON(t, resp, &body)
	return body.Data
}

func createService(t *testing.T, c *testutil.Client, orgID string, body map[string]any) domain.Service {
	t.Helper()
	resp, err := c.POST("/api/v1/organizations/"+orgID+"/services", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out envelope[domain.Service]
	testutil.DecodeJSON(t, resp, &out)
	return out.Data
}

func createIncident(t *testing.T, c *testutil.Client, orgID string, body map[string]any) domain.Incident {
	t.Helper()
	resp, err := c.POST("/api/v1/organizations/"+orgID+"/incidents", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out envelope[domain.Incident]
	testutil.DecodeJSON(t, resp, &out)
	return out.Data
}

func getSnapshot(t *testing.T, c *testutil.Client, slug string) snapshot {
	t.Helper()
	resp, err := c.GET("/api/v1/public/status/" + slug)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out envelope[snapshot]
	testutil.DecodeJSON(t, resp, &out)
	return out.Data
}

func identityToken(t *testing.T, ref string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"org_id": ref,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(identitySigningKey))
	require.NoError(t, err)
	return signed
}

func runScenarios(t *testing.T, newClient func(t *testing.T) *testutil.Client) {
	t.Run("acme public status", func(t *testing.T) {
		c := newClient(t)
		slug := uniqueSlug("acme")
		org := createOrganization(t, c, "Acme", slug, uuid.NewString())
		api := createService(t, c, org.ID, map[string]any{"name": "API", "status": "OPERATIONAL"})
		incident := createIncident(t, c, org.ID, map[string]any{
			"title":       "Partial outage",
			"description": "Elevated error rates",
			"status":      "OPEN",
			"service_ids": []string{api.ID},
		})

		snap := getSnapshot(t, c, slug)
		assert.Equal(t, org.ID, snap.Organization.ID)
		require.Len(t, snap.Services, 1)
		assert.Equal(t, "API", snap.Services[0].Name)
		require.Len(t, snap.Incidents, 1)
		assert.Equal(t, incident.ID, snap.Incidents[0].ID)
		assert.Equal(t, "Partial outage", snap.Incidents[0].Title)
		assert.Equal(t, "OPERATIONAL", snap.Summary.OverallStatus)
		assert.Equal(t, 1, snap.Summary.OpenIncidents)
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		c := newClient(t)
		slug := uniqueSlug("dup")
		createOrganization(t, c, "First", slug, uuid.NewString())

		resp, err := c.POST("/api/v1/organizations", map[string]string{
			"name":         "Second",
			"slug":         slug,
			"external_ref": uuid.NewString(),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		resp, err = c.GET("/api/v1/organizations/slug/" + slug)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got envelope[domain.Organization]
		testutil.DecodeJSON(t, resp, &got)
		assert.Equal(t, "First", got.Data.Name)
	})

	t.Run("current organization from identity token", func(t *testing.T) {
		c := newClient(t)
		ref := uuid.NewString()
		org := createOrganization(t, c, "Token Org", uniqueSlug("token"), ref)

		resp, err := c.WithToken(identityToken(t, ref)).GET("/api/v1/organizations/current")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got envelope[domain.Organization]
		testutil.DecodeJSON(t, resp, &got)
		assert.Equal(t, org.ID, got.Data.ID)

		resp, err = c.GET("/api/v1/organizations/current")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)
	})

	t.Run("service partial update keeps omitted fields", func(t *testing.T) {
		c := newClient(t)
		org := createOrganization(t, c, "Patch Org", uniqueSlug("patch"), uuid.NewString())
		svc := createService(t, c, org.ID, map[string]any{"name": "API", "description": "REST"})
		assert.Nil(t, svc.UpdatedAt)

		resp, err := c.PATCH("/api/v1/services/"+svc.ID, map[string]any{"status": "MAJOR_OUTAGE"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var patched envelope[domain.Service]
		testutil.DecodeJSON(t, resp, &patched)
		assert.Equal(t, domain.ServiceStatusMajorOutage, patched.Data.Status)
		assert.Equal(t, "API", patched.Data.Name)
		require.NotNil(t, patched.Data.Description)
		assert.Equal(t, "REST", *patched.Data.Description)
		assert.NotNil(t, patched.Data.UpdatedAt)

		resp, err = c.PUT("/api/v1/services/"+svc.ID, map[string]any{"status": "OPERATIONAL", "description": nil})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var replaced envelope[domain.Service]
		testutil.DecodeJSON(t, resp, &replaced)
		assert.Equal(t, domain.ServiceStatusOperational, replaced.Data.Status)
		assert.Nil(t, replaced.Data.Description)
	})

	t.Run("delete service twice and keep dangling reference", func(t *testing.T) {
		c := newClient(t)
		slug := uniqueSlug("dangling")
		org := createOrganization(t, c, "Dangling", slug, uuid.NewString())
		svc := createService(t, c, org.ID, map[string]any{"name": "API"})
		createIncident(t, c, org.ID, map[string]any{
			"title":       "Outage",
			"description": "API down",
			"service_ids": []string{svc.ID},
		})

		resp, err := c.DELETE("/api/v1/services/" + svc.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		resp, err = c.DELETE("/api/v1/services/" + svc.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		snap := getSnapshot(t, c, slug)
		assert.Empty(t, snap.Services)
		require.Len(t, snap.Incidents, 1)
		assert.Equal(t, []string{svc.ID}, snap.Incidents[0].ServiceIDs)
	})

	t.Run("incidents newest first with updates", func(t *testing.T) {
		c := newClient(t)
		org := createOrganization(t, c, "Timeline", uniqueSlug("timeline"), uuid.NewString())
		first := createIncident(t, c, org.ID, map[string]any{"title": "first", "description": "d"})
		second := createIncident(t, c, org.ID, map[string]any{"title": "second", "description": "d"})

		resp, err := c.POST("/api/v1/incidents/"+first.ID+"/updates", map[string]string{"content": "Investigating"})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		resp, err = c.PATCH("/api/v1/incidents/"+first.ID, map[string]any{"status": "RESOLVED"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		resp, err = c.GET("/api/v1/organizations/" + org.ID + "/incidents")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list envelope[[]domain.Incident]
		testutil.DecodeJSON(t, resp, &list)
		require.Len(t, list.Data, 2)
		assert.Equal(t, second.ID, list.Data[0].ID)
		assert.Equal(t, first.ID, list.Data[1].ID)
		assert.Equal(t, domain.IncidentStatusResolved, list.Data[1].Status)
		require.Len(t, list.Data[1].Updates, 1)
		assert.Equal(t, "Investigating", list.Data[1].Updates[0].Content)
	})

	t.Run("validation errors", func(t *testing.T) {
		c := newClient(t)

		resp, err := c.POST("/api/v1/organizations/not-a-uuid/services", map[string]any{"name": "API"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)

		org := createOrganization(t, c, "Invalid", uniqueSlug("invalid"), uuid.NewString())
		resp, err = c.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]any{
			"title":       "x",
			"description": "y",
			"service_ids": []string{"API"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = testutil.ReadBody(t, resp)
	})
}
