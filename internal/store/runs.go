package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

const runColumns = `id, mode, status, started_at, ended_at, processed, matched, queued_for_review,
    rejected, newly_in_stock, newly_out_of_stock, failed, details, error_message`

// CreateRun persists a new sync run in the running state. This is the first
// write of every run; if it fails the whole invocation fails.
func (s *Store) CreateRun(ctx context.Context, mode types.RunMode) (*types.SyncRun, error) {
	run := &types.SyncRun{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    types.RunRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, mode, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID,
		string(run.Mode),
		string(run.Status),
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, pkgerrors.WrapPersistence("insert", "sync_run", run.ID, err)
	}
	return run, nil
}

// FinishRun transitions a run to its terminal status with whatever counters
// it accumulated. It is the guaranteed last write of a run, including crash
// paths.
func (s *Store) FinishRun(ctx context.Context, run *types.SyncRun) error {
	now := time.Now().UTC()
	run.EndedAt = &now

	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs
         SET status = ?, ended_at = ?, processed = ?, matched = ?, queued_for_review = ?,
             rejected = ?, newly_in_stock = ?, newly_out_of_stock = ?, failed = ?,
             details = ?, error_message = ?
         WHERE id = ?`,
		string(run.Status),
		now.Format(time.RFC3339Nano),
		run.Counters.Processed,
		run.Counters.Matched,
		run.Counters.QueuedForReview,
		run.Counters.Rejected,
		run.Counters.NewlyInStock,
		run.Counters.NewlyOutOfStock,
		run.Counters.Failed,
		nullableString(run.Details),
		nullableString(run.Error),
		run.ID,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "sync_run", run.ID, err)
	}
	return nil
}

// GetRun fetches one sync run by identifier.
func (s *Store) GetRun(ctx context.Context, id string) (*types.SyncRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sync run: %w", err)
	}
	return run, nil
}

// ListRuns returns recent sync runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []types.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*types.SyncRun, error) {
	var (
		id           string
		mode         string
		status       string
		startedRaw   string
		endedRaw     sql.NullString
		counters     types.RunCounters
		details      sql.NullString
		errorMessage sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&mode,
		&status,
		&startedRaw,
		&endedRaw,
		&counters.Processed,
		&counters.Matched,
		&counters.QueuedForReview,
		&counters.Rejected,
		&counters.NewlyInStock,
		&counters.NewlyOutOfStock,
		&counters.Failed,
		&details,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	run := &types.SyncRun{
		ID:       id,
		Mode:     types.RunMode(mode),
		Status:   types.RunStatus(status),
		Counters: counters,
		Details:  details.String,
		Error:    errorMessage.String,
	}
	if t, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = t
	}
	if endedRaw.Valid {
		if t, err := parseTimeString(endedRaw.String); err == nil {
			run.EndedAt = &t
		}
	}
	return run, nil
}
