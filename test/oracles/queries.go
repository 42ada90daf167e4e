package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_one_active_transfer_per_property",
			SQL: `SELECT property_id, COUNT(*) FROM property_transfers
                  WHERE status NOT IN ('completed','cancelled','rejected')
                  GROUP BY property_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_one_active_dispute_per_property",
			SQL: `SELECT property_id, COUNT(*) FROM disputes
                  WHERE status NOT IN ('resolved','withdrawn')
                  GROUP BY property_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O3_transfer_lock_consistency",
			SQL: `SELECT p.id FROM properties p
                  LEFT JOIN property_transfers t ON t.id = p.current_transfer_id
                  WHERE p.current_transfer_id IS NOT NULL
                    AND (t.id IS NULL OR t.property_id <> p.id
                         OR t.status IN ('completed','cancelled','rejected'))
                  UNION ALL
                  SELECT t.id FROM property_transfers t
                  JOIN properties p ON p.id = t.property_id
                  WHERE t.status NOT IN ('completed','cancelled','rejected')
                    AND (p.current_transfer_id IS NULL OR p.current_transfer_id <> t.id)`,
		},
		{
			Name: "O4_dispute_flag_derived",
			SQL: `SELECT p.id FROM properties p
                  WHERE p.has_active_dispute <> EXISTS (
                      SELECT 1 FROM disputes d
                      WHERE d.property_id = p.id AND d.status NOT IN ('resolved','withdrawn'))`,
		},
		{
			Name: "O5_transfer_seq_monotonic",
			SQL: `WITH seqs AS (
                      SELECT transfer_id, seq,
                             LAG(seq) OVER (PARTITION BY transfer_id ORDER BY seq) AS prev
                      FROM transfer_events)
                  SELECT * FROM seqs WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			Name: "O6_dispute_seq_monotonic",
			SQL: `WITH seqs AS (
                      SELECT dispute_id, seq,
                             LAG(seq) OVER (PARTITION BY dispute_id ORDER BY seq) AS prev
                      FROM dispute_events)
                  SELECT * FROM seqs WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			Name: "O7_completed_transfer_has_history",
			SQL: `SELECT t.id FROM property_transfers t
                  WHERE t.status = 'completed'
                    AND NOT EXISTS (SELECT 1 FROM ownership_history h WHERE h.transfer_id = t.id)`,
		},
		{
			Name: "O8_resolved_dispute_carries_outcome",
			SQL: `SELECT id FROM disputes
                  WHERE status = 'resolved'
                    AND (resolution_outcome IS NULL OR resolved_at IS NULL)`,
		},
		{
			Name: "O9_outbox_progress",
			SQL: `SELECT id FROM outbox
                  WHERE status = 'pending' AND now() - created_at > interval '5 minutes'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
