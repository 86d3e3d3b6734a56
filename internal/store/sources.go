package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

// Success-rate nudge factor. The rolling rate is an exponential moving
// average updated in a single SQL expression, so concurrent adapters never
// race a read-modify-write in Go.
const successRateAlpha = 0.2

// SeedSources inserts descriptors that are not yet present. Existing rows
// keep their rolling health but pick up priority and active changes from the
// seed.
func (s *Store) SeedSources(ctx context.Context, descriptors []types.SourceDescriptor) error {
	for _, d := range descriptors {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO source_status (name, active, priority, success_rate)
             VALUES (?, ?, ?, 1.0)
             ON CONFLICT(name) DO UPDATE SET active = excluded.active, priority = excluded.priority`,
			d.Name,
			boolToInt(d.Active),
			d.Priority,
		)
		if err != nil {
			return pkgerrors.WrapPersistence("upsert", "source_status", d.Name, err)
		}
	}
	return nil
}

// RecordSourceSuccess nudges a source's rolling success rate up and stamps
// the last successful fetch.
func (s *Store) RecordSourceSuccess(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE source_status
         SET success_rate = success_rate + ? * (1.0 - success_rate),
             last_success = ?
         WHERE name = ?`,
		successRateAlpha,
		time.Now().UTC().Format(time.RFC3339Nano),
		name,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "source_status", name, err)
	}
	return nil
}

// RecordSourceFailure nudges a source's rolling success rate down. The
// failure is recorded without crashing the run.
func (s *Store) RecordSourceFailure(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE source_status
         SET success_rate = success_rate - ? * success_rate
         WHERE name = ?`,
		successRateAlpha,
		name,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "source_status", name, err)
	}
	return nil
}

// ListSources returns all source descriptors with their rolling health,
// highest priority (lowest rank) first.
func (s *Store) ListSources(ctx context.Context) ([]types.SourceDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, active, priority, success_rate, last_success FROM source_status ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var descriptors []types.SourceDescriptor
	for rows.Next() {
		var (
			d           types.SourceDescriptor
			active      int
			lastSuccess sql.NullString
		)
		if err := rows.Scan(&d.Name, &active, &d.Priority, &d.SuccessRate, &lastSuccess); err != nil {
			return nil, err
		}
		d.Active = active != 0
		if lastSuccess.Valid {
			if t, err := parseTimeString(lastSuccess.String); err == nil {
				d.LastSuccess = &t
			}
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}
