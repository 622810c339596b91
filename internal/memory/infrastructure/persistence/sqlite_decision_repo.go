package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"untangle/internal/memory/domain"
)

// SQLiteDecisionRepository archives decision records in SQLite. It mirrors the
// NDJSON log to make the history queryable; the log stays the source of truth.
type SQLiteDecisionRepository struct {
	db *sql.DB
}

// NewSQLiteDecisionRepository creates a new SQLite decision repository.
func NewSQLiteDecisionRepository(db *sql.DB) *SQLiteDecisionRepository {
	return &SQLiteDecisionRepository{db: db}
}

// EnsureSchema creates the decisions table when missing.
func (r *SQLiteDecisionRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS decisions (
			id TEXT NOT NULL,
			revision INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			user_action TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (id, revision)
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating decisions table: %w", err)
	}
	_, err := r.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_decisions_recorded_at ON decisions(recorded_at)`)
	return err
}

// Append stores a decision revision. Replaying the same revision is a no-op
// rather than an error, so the archive can be rebuilt from the log.
func (r *SQLiteDecisionRepository) Append(ctx context.Context, decision domain.Decision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO decisions (
			id, revision, schema_version, recorded_at, fingerprint, user_action, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		decision.ID.String(),
		decision.Revision,
		decision.SchemaVersion,
		decision.RecordedAt.UTC().Format(time.RFC3339),
		decision.Fingerprint,
		string(decision.UserAction),
		string(payload),
	)
	return err
}

// LoadSince returns records recorded at or after the cutoff, oldest first.
func (r *SQLiteDecisionRepository) LoadSince(ctx context.Context, cutoff time.Time) ([]domain.Decision, error) {
	query := `
		SELECT payload FROM decisions
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, revision ASC
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []domain.Decision
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d domain.Decision
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, fmt.Errorf("decoding archived decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// Cleanup deletes records older than the cutoff.
func (r *SQLiteDecisionRepository) Cleanup(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE recorded_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	return err
}
