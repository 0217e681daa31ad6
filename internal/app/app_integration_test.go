//go:build integration

package app_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/bissquit/statuspage/internal/config"
	"github.com/bissquit/statuspage/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestPostgresScenarios(t *testing.T) {
	ctx := context.Background()

	pg, err := testutil.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	cfg := testConfig()
	cfg.Storage.Driver = config.StorageDriverPostgres
	cfg.Database.URL = pg.ConnectionString
	cfg.Database.MaxOpenConns = 5
	cfg.Database.MaxIdleConns = 2
	cfg.Database.ConnectAttempts = 3

	server := startApp(t, cfg)
	validator := testutil.NewOpenAPIValidator(t)

	runScenarios(t, func(t *testing.T) *testutil.Client {
		c := testutil.NewClientWithValidator(server.URL, validator)
		c.SetT(t)
		return c
	})
}

func TestPostgresAutoMigrate(t *testing.T) {
	ctx := context.Background()

	pg, err := testutil.NewEmptyPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	cfg := testConfig()
	cfg.Storage.Driver = config.StorageDriverPostgres
	cfg.Database.URL = pg.ConnectionString
	cfg.Database.MaxOpenConns = 5
	cfg.Database.MaxIdleConns = 1
	cfg.Database.ConnectAttempts = 3
	cfg.Database.AutoMigrate = true

	server := startApp(t, cfg)
	c := testutil.NewClientWithValidation(t, server.URL)

	resp, err := c.GET("/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)

	createOrganization(t, c, "Migrated", uniqueSlug("migrated"), "idp-migrated")
}
