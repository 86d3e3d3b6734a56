package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

const reviewColumns = "id, listing_key, listing_json, candidates_json, top_score, status, created_at, updated_at"

// UpsertReviewEntry queues an ambiguous match for human adjudication. The
// queue is keyed by listing identity: an existing pending entry for the same
// listing is updated with the fresh candidates, never duplicated. Entries
// already adjudicated (approved/rejected/no_match) are left alone.
func (s *Store) UpsertReviewEntry(ctx context.Context, listing types.Listing, candidates []types.MatchCandidate) (*types.ReviewEntry, error) {
	listingJSON, err := json.Marshal(listing)
	if err != nil {
		return nil, pkgerrors.WrapPersistence("upsert", "review_entry", listing.Key(), err)
	}
	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, pkgerrors.WrapPersistence("upsert", "review_entry", listing.Key(), err)
	}

	topScore := 0
	if len(candidates) > 0 {
		topScore = candidates[0].Score
	}
	status := types.ReviewPending
	if len(candidates) == 0 {
		status = types.ReviewNoMatch
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_queue (id, listing_key, listing_json, candidates_json, top_score, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(listing_key) DO UPDATE SET
             listing_json = excluded.listing_json,
             candidates_json = excluded.candidates_json,
             top_score = excluded.top_score,
             updated_at = excluded.updated_at
         WHERE review_queue.status IN ('pending', 'no_match')`,
		id,
		listing.Key(),
		string(listingJSON),
		string(candidatesJSON),
		topScore,
		string(status),
		now,
		now,
	)
	if err != nil {
		return nil, pkgerrors.WrapPersistence("upsert", "review_entry", listing.Key(), err)
	}

	return s.GetReviewEntryByKey(ctx, listing.Key())
}

// GetReviewEntry fetches one review queue entry by identifier.
func (s *Store) GetReviewEntry(ctx context.Context, id string) (*types.ReviewEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM review_queue WHERE id = ?`, id)
	entry, err := scanReviewEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review entry: %w", err)
	}
	return entry, nil
}

// GetReviewEntryByKey fetches one review queue entry by listing identity.
func (s *Store) GetReviewEntryByKey(ctx context.Context, listingKey string) (*types.ReviewEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM review_queue WHERE listing_key = ?`, listingKey)
	entry, err := scanReviewEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review entry: %w", err)
	}
	return entry, nil
}

// ListReviewEntries returns a page of queue entries, newest first. An empty
// status filter returns all entries.
func (s *Store) ListReviewEntries(ctx context.Context, status types.ReviewStatus, limit, offset int) ([]types.ReviewEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+reviewColumns+` FROM review_queue ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
			limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+reviewColumns+` FROM review_queue WHERE status = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
			string(status), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list review entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ReviewEntry
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// CountReviewEntries returns the number of entries with the given status, or
// all entries when status is empty.
func (s *Store) CountReviewEntries(ctx context.Context, status types.ReviewStatus) (int, error) {
	var (
		row *sql.Row
	)
	if status == "" {
		row = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM review_queue`)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM review_queue WHERE status = ?`, string(status))
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count review entries: %w", err)
	}
	return count, nil
}

// ResolveReviewEntry records a human adjudication. Approval flips the entry
// to approved; the caller is responsible for feeding the approved match back
// through the stock write path.
func (s *Store) ResolveReviewEntry(ctx context.Context, id string, status types.ReviewStatus) error {
	if status != types.ReviewApproved && status != types.ReviewRejected {
		return &pkgerrors.ValidationError{Field: "status", Value: status, Message: "must be approved or rejected"}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE review_queue SET status = ?, updated_at = ? WHERE id = ? AND status = 'pending'`,
		string(status),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "review_entry", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.WrapPersistence("update", "review_entry", id, err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

// ReopenReviewEntry puts an approved entry back in the pending queue. The
// reconciler uses it when the stock write that follows an approval fails, so
// the entry is not stranded in a terminal status with no catalog effect.
func (s *Store) ReopenReviewEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_queue SET status = 'pending', updated_at = ? WHERE id = ? AND status = 'approved'`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "review_entry", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.WrapPersistence("update", "review_entry", id, err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func scanReviewEntry(scanner interface{ Scan(dest ...any) error }) (*types.ReviewEntry, error) {
	var (
		id             string
		listingKey     string
		listingJSON    string
		candidatesJSON string
		topScore       int
		status         string
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(&id, &listingKey, &listingJSON, &candidatesJSON, &topScore, &status, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	entry := &types.ReviewEntry{
		ID:         id,
		ListingKey: listingKey,
		TopScore:   topScore,
		Status:     types.ReviewStatus(status),
	}
	if err := json.Unmarshal([]byte(listingJSON), &entry.Listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if err := json.Unmarshal([]byte(candidatesJSON), &entry.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	if t, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = t
	}
	return entry, nil
}
