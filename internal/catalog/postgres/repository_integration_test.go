//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/bissquit/statuspage/internal/catalog"
	catpostgres "github.com/bissquit/statuspage/internal/catalog/postgres"
	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/optional"
	"github.com/bissquit/statuspage/internal/pkg/postgres"
	"github.com/bissquit/statuspage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *catpostgres.Repository {
	t.Helper()
	ctx := context.Background()

	pg, err := testutil.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	pool, err := postgres.Connect(ctx, postgres.Config{URL: pg.ConnectionString, MaxOpenConns: 8, ConnectAttempts: 3})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return catpostgres.NewRepository(pool)
}

func TestRepository_ServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)
	orgID := domain.NewID()

	for _, name := range []string{"API", "Web", "DB"} {
		require.NoError(t, repo.CreateService(ctx, &domain.Service{Name: name, Status: domain.ServiceStatusOperational, OrgID: orgID}))
	}
	require.NoError(t, repo.CreateService(ctx, &domain.Service{Name: "Foreign", Status: domain.ServiceStatusOperational, OrgID: domain.NewID()}))

	list, err := repo.ListServicesByOrg(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "API", list[0].Name)
	assert.Equal(t, "Web", list[1].Name)
	assert.Equal(t, "DB", list[2].Name)
	assert.Nil(t, list[0].UpdatedAt)

	desc := "public api"
	svc := &domain.Service{Name: "Gateway", Description: &desc, Status: domain.ServiceStatusOperational, OrgID: orgID}
	require.NoError(t, repo.CreateService(ctx, svc))

	updated, err := repo.UpdateService(ctx, svc.ID, domain.ServicePatch{
		Status:      optional.Of(domain.ServiceStatusDegraded),
		Description: optional.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gateway", updated.Name)
	assert.Equal(t, domain.ServiceStatusDegraded, updated.Status)
	assert.Nil(t, updated.Description)
	require.NotNil(t, updated.UpdatedAt)

	_, err = repo.UpdateService(ctx, domain.NewID(), domain.ServicePatch{Name: optional.Of("x")})
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

	require.NoError(t, repo.DeleteService(ctx, svc.ID))
	assert.ErrorIs(t, repo.DeleteService(ctx, svc.ID), catalog.ErrServiceNotFound)

	_, err = repo.GetServiceByID(ctx, svc.ID)
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestRepository_ConcurrentDisjointUpdates(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	svc := &domain.Service{Name: "API", Status: domain.ServiceStatusOperational, OrgID: domain.NewID()}
	require.NoError(t, repo.CreateService(ctx, svc))

	const writers = 20
	var wg sync.WaitGroup
	for range writers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateService(ctx, svc.ID, domain.ServicePatch{Name: optional.Of("API2")})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.UpdateService(ctx, svc.ID, domain.ServicePatch{Status: optional.Of(domain.ServiceStatusMajorOutage)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetServiceByID(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "API2", got.Name)
	assert.Equal(t, domain.ServiceStatusMajorOutage, got.Status)
}
