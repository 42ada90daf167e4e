package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"landflow/test/actors"
	"landflow/test/chaos"
	"landflow/test/infra"
	"landflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestWorkflowConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// seed minimal data
	seedData := mustSeed(t, ctx, pool)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// initiators battling over the same parcel's single active-transfer slot
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error {
			return actors.Initiator(ctx2, pool, seedData.propertyID, seedData.userA, seedData.userB, stop)
		})
		g.Go(func() error {
			return actors.Disputant(ctx2, pool, seedData.propertyID, seedData.disputant, stop)
		})
	}

	// transfer driver
	g.Go(func() error { return actors.Driver(ctx2, pool, seedData.propertyID, stop) })
	// dispute resolver
	g.Go(func() error { return actors.Resolver(ctx2, pool, seedData.propertyID, stop) })
	// audit writer
	g.Go(func() error { return actors.AuditWriter(ctx2, pool, seedData.propertyID, seedData.officer, stop) })
	// outbox worker
	g.Go(func() error { return actors.OutboxWorker(ctx2, pool, stop) })
	// chaos: kill random backend
	go chaos.KillRandomBackend(ctx2, pool, stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	userA      string
	userB      string
	disputant  string
	officer    string
	propertyID string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	var s seedIDs
	insertUser := `INSERT INTO users (email, full_name, password_hash, role) VALUES ($1, $2, 'x', $3) RETURNING id`
	if err := pool.QueryRow(ctx, insertUser, fmt.Sprintf("a%d@example.com", rand.Int63()), "Stress Owner A", "citizen").Scan(&s.userA); err != nil {
		t.Fatalf("seed user a: %v", err)
	}
	if err := pool.QueryRow(ctx, insertUser, fmt.Sprintf("b%d@example.com", rand.Int63()), "Stress Owner B", "citizen").Scan(&s.userB); err != nil {
		t.Fatalf("seed user b: %v", err)
	}
	if err := pool.QueryRow(ctx, insertUser, fmt.Sprintf("d%d@example.com", rand.Int63()), "Stress Disputant", "citizen").Scan(&s.disputant); err != nil {
		t.Fatalf("seed disputant: %v", err)
	}
	if err := pool.QueryRow(ctx, insertUser, fmt.Sprintf("o%d@example.com", rand.Int63()), "Stress Officer", "officer").Scan(&s.officer); err != nil {
		t.Fatalf("seed officer: %v", err)
	}
	// one approved parcel everyone fights over
	if err := pool.QueryRow(ctx, `
INSERT INTO properties (plot_number, region, sub_city, kebele, property_type, area_sqm, status, owner_id)
VALUES ($1, 'Addis Ababa', 'Bole', '03', 'residential', 250, 'approved', $2)
RETURNING id`, fmt.Sprintf("ST-%d", rand.Int63()), s.userA).Scan(&s.propertyID); err != nil {
		t.Fatalf("seed property: %v", err)
	}
	// an outbox row so the worker has something even before actors produce any
	_, _ = pool.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ('property.registered', jsonb_build_object('property_id', $1::text))`, s.propertyID)
	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"property_transfers", `SELECT id, property_id, status, created_at FROM property_transfers ORDER BY created_at DESC LIMIT 50`},
		{"disputes", `SELECT id, property_id, status, created_at FROM disputes ORDER BY created_at DESC LIMIT 50`},
		{"transfer_events", `SELECT id, transfer_id, seq, action, created_at FROM transfer_events ORDER BY id DESC LIMIT 50`},
		{"outbox", `SELECT id, topic, status, attempts, created_at FROM outbox ORDER BY created_at DESC LIMIT 50`},
		{"application_logs", `SELECT id, property_id, action, created_at FROM application_logs ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
