package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"summons-workers/internal/models"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS summons_runs (
	run_id       UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	error_code   TEXT,
	categories   TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
)`

const insertRun = `
INSERT INTO summons_runs (run_id, status, error_code, categories, duration_ms, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id) DO NOTHING`

// RunStore writes one audit row per finished pipeline run. Rows are never read back
// by the pipeline.
type RunStore struct {
	pg *PostgresClient
}

func NewRunStore(pg *PostgresClient) *RunStore {
	return &RunStore{pg: pg}
}

func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.Exec(ctx, createRunsTable); err != nil {
		return fmt.Errorf("create summons_runs: %w", err)
	}
	return nil
}

func (s *RunStore) RecordRun(ctx context.Context, rec models.RunRecord) error {
	var errorCode sql.NullString
	if rec.ErrorCode != "" {
		errorCode = sql.NullString{String: rec.ErrorCode, Valid: true}
	}

	_, err := s.pg.Exec(ctx, insertRun,
		rec.RunID,
		rec.State,
		errorCode,
		strings.Join(rec.Categories, ","),
		rec.Duration.Milliseconds(),
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert summons run %s: %w", rec.RunID, err)
	}
	return nil
}
