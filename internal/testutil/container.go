package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/statuspage/internal/pkg/postgres"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a postgres testcontainer.
type PostgresContainer struct {
	*tcpostgres.PostgresContainer
	ConnectionString string
}

// NewPostgresContainer starts PostgreSQL and applies the embedded migrations.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	pg, err := NewEmptyPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(pg.ConnectionString); err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("migrate test database: %w", err)
	}
	return pg, nil
}

// NewEmptyPostgresContainer starts PostgreSQL without any schema.
func NewEmptyPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("statuspage"),
		tcpostgres.WithUsername("statuspage"),
		tcpostgres.WithPassword("statuspage"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		ConnectionString:  connStr,
	}, nil
}
