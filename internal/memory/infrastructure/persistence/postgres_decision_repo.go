package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"untangle/internal/memory/domain"
)

// PostgresDecisionRepository archives decision records in PostgreSQL.
type PostgresDecisionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDecisionRepository creates a new Postgres decision repository.
func NewPostgresDecisionRepository(pool *pgxpool.Pool) *PostgresDecisionRepository {
	return &PostgresDecisionRepository{pool: pool}
}

// EnsureSchema creates the decisions table when missing.
func (r *PostgresDecisionRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS decisions (
			id UUID NOT NULL,
			revision INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			fingerprint TEXT NOT NULL,
			user_action TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (id, revision)
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating decisions table: %w", err)
	}
	_, err := r.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_decisions_recorded_at ON decisions(recorded_at)`)
	return err
}

// Append stores a decision revision; replays are ignored.
func (r *PostgresDecisionRepository) Append(ctx context.Context, decision domain.Decision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	query := `
		INSERT INTO decisions (
			id, revision, schema_version, recorded_at, fingerprint, user_action, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id, revision) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		decision.ID,
		decision.Revision,
		decision.SchemaVersion,
		decision.RecordedAt.UTC(),
		decision.Fingerprint,
		string(decision.UserAction),
		payload,
	)
	return err
}

// LoadSince returns records recorded at or after the cutoff, oldest first.
func (r *PostgresDecisionRepository) LoadSince(ctx context.Context, cutoff time.Time) ([]domain.Decision, error) {
	query := `
		SELECT payload FROM decisions
		WHERE recorded_at >= $1
		ORDER BY recorded_at ASC, revision ASC
	`
	rows, err := r.pool.Query(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []domain.Decision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d domain.Decision
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decoding archived decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// Cleanup deletes records older than the cutoff.
func (r *PostgresDecisionRepository) Cleanup(ctx context.Context, cutoff time.Time) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM decisions WHERE recorded_at < $1`, cutoff.UTC())
	return err
}
