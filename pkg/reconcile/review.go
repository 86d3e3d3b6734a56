package reconcile

import (
	"context"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/logging"
	"github.com/harborline/motorsync/pkg/types"
)

// Approve resolves a pending review entry as a confirmed match and feeds it
// through the same stock write path auto-accepted listings take. The motor to
// apply defaults to the entry's top candidate; a non-zero motorID picks a
// different candidate from the entry.
func (r *Reconciler) Approve(ctx context.Context, entryID string, motorID int64) (*types.ReviewEntry, error) {
	entry, err := r.store.GetReviewEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if len(entry.Candidates) == 0 {
		return nil, &errors.ValidationError{Field: "candidates", Value: entryID, Message: "entry has no match candidates to approve"}
	}

	chosen := entry.Candidates[0]
	if motorID != 0 {
		found := false
		for _, candidate := range entry.Candidates {
			if candidate.MotorID == motorID {
				chosen = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, &errors.ValidationError{Field: "motorID", Value: motorID, Message: "not a candidate on this entry"}
		}
	}

	// Resolving first makes double approval impossible; only one caller can
	// move the entry out of pending.
	if err := r.store.ResolveReviewEntry(ctx, entryID, types.ReviewApproved); err != nil {
		return nil, err
	}

	listing := entry.Listing
	if err := r.store.UpsertStock(ctx, chosen.MotorID, listing.Quantity, listing.Price, listing.StockNumber); err != nil {
		// The approval must not stick without its stock write. Put the
		// entry back in the queue so the operator can retry.
		if reopenErr := r.store.ReopenReviewEntry(context.WithoutCancel(ctx), entryID); reopenErr != nil {
			logging.FromContext(ctx).Error().Err(reopenErr).
				Str("entry_id", entryID).
				Msg("Failed to reopen review entry after stock write failure")
		}
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Str("entry_id", entryID).
		Int64("motor_id", chosen.MotorID).
		Int("score", chosen.Score).
		Msg("Review entry approved")

	entry.Status = types.ReviewApproved
	return entry, nil
}

// Reject resolves a pending review entry as not-a-match. The catalog is not
// touched.
func (r *Reconciler) Reject(ctx context.Context, entryID string) (*types.ReviewEntry, error) {
	entry, err := r.store.GetReviewEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := r.store.ResolveReviewEntry(ctx, entryID, types.ReviewRejected); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().Str("entry_id", entryID).Msg("Review entry rejected")

	entry.Status = types.ReviewRejected
	return entry, nil
}
