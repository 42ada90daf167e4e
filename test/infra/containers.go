package infra

import (
	"context"
	"os"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PGContainer wraps the optional throwaway Postgres the stress run boots when
// no shared DSN is provided. A zero value is a no-op handle.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// StartPostgres16 boots a disposable Postgres 16 container and returns its DSN.
// overrideDSN or STRESS_TEST_PG_DSN short-circuit the container entirely.
func StartPostgres16(ctx context.Context, overrideDSN string) (*PGContainer, string, error) {
	if overrideDSN != "" {
		return &PGContainer{}, overrideDSN, nil
	}
	if dsn := os.Getenv("STRESS_TEST_PG_DSN"); dsn != "" {
		return &PGContainer{}, dsn, nil
	}

	image := os.Getenv("STRESS_TEST_PG_IMAGE")
	if image == "" {
		image = "postgres:16"
	}

	pgC, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("landflow"),
		postgres.WithUsername("landflow"),
		postgres.WithPassword("landflow"),
	)
	if err != nil {
		return nil, "", err
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", err
	}
	return &PGContainer{C: pgC}, dsn, nil
}

func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}
