// Package reconcile coordinates a full reconciliation run: it fetches all
// active listing sources concurrently, scores every scraped listing against
// the canonical catalog, dispositions each one by score threshold, and either
// previews the resulting stock diff or applies it.
//
// Every run is audited. A sync run row is persisted as running before any
// work starts and is always driven to a terminal status, with partial
// counters preserved when a run fails or is canceled partway.
package reconcile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/logging"
	"github.com/harborline/motorsync/pkg/sources"
	"github.com/harborline/motorsync/pkg/types"
)

// Store is the persistence surface a run needs. *store.Store satisfies it.
type Store interface {
	CreateRun(ctx context.Context, mode types.RunMode) (*types.SyncRun, error)
	FinishRun(ctx context.Context, run *types.SyncRun) error

	ListMotors(ctx context.Context) ([]types.Motor, error)
	ResetStock(ctx context.Context) (int64, error)
	UpsertStock(ctx context.Context, id int64, quantity int, price float64, stockNumber string) error
	SetEstimatedPrice(ctx context.Context, id int64, price float64) error
	ApplyEnrichment(ctx context.Context, id int64, enrichment types.Enrichment, quality int, origins []types.FieldOrigin) error

	UpsertReviewEntry(ctx context.Context, listing types.Listing, candidates []types.MatchCandidate) (*types.ReviewEntry, error)
	GetReviewEntry(ctx context.Context, id string) (*types.ReviewEntry, error)
	ResolveReviewEntry(ctx context.Context, id string, status types.ReviewStatus) error
	ReopenReviewEntry(ctx context.Context, id string) error

	RecordSourceSuccess(ctx context.Context, name string) error
	RecordSourceFailure(ctx context.Context, name string) error
}

// Reconciler runs the sync pipeline against one store and source registry.
type Reconciler struct {
	store    Store
	registry *sources.Registry
	opts     *options
}

// New creates a Reconciler with options.
func New(store Store, registry *sources.Registry, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}
	if registry == nil {
		return nil, &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{store: store, registry: registry, opts: options}, nil
}

// Run executes one reconciliation run in the given mode. The run's audit row
// reaches a terminal status even when the pipeline errors or the context is
// canceled; in that case the row carries the counters accumulated so far.
func (r *Reconciler) Run(ctx context.Context, mode types.RunMode) (*Result, error) {
	started := time.Now()

	run, err := r.store.CreateRun(ctx, mode)
	if err != nil {
		return nil, errors.NewRunError("", "create", err)
	}
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.FromContext(ctx)
	logger.Info().Str("mode", string(mode)).Msg("Reconciliation run started")

	result := newResult(run)
	execErr := r.execute(ctx, mode, result)

	if execErr != nil {
		run.Status = types.RunFailed
		run.Error = execErr.Error()
	} else {
		run.Status = types.RunCompleted
	}
	run.Details = result.detailsJSON()

	// The terminal status must land even if ctx was canceled mid-run.
	if finishErr := r.store.FinishRun(context.WithoutCancel(ctx), run); finishErr != nil {
		logger.Error().Err(finishErr).Msg("Failed to finalize sync run")
		if execErr == nil {
			execErr = finishErr
		}
	}

	result.finalize(started)
	logger.Info().
		Str("status", string(run.Status)).
		Int("processed", run.Counters.Processed).
		Int("matched", run.Counters.Matched).
		Int("queued", run.Counters.QueuedForReview).
		Dur("duration", result.Duration).
		Msg("Reconciliation run finished")

	if execErr != nil {
		return result, errors.NewRunError(run.ID, "execute", execErr)
	}
	return result, nil
}

// disposition is one listing's fate after scoring, before any write.
type disposition struct {
	listing    types.Listing
	outcome    types.RecordOutcome
	best       *types.MatchCandidate
	candidates []types.MatchCandidate
}

// stockProposal aggregates the listings that matched one motor into a single
// stock write. Quantities sum; the highest listing price wins; the first
// listing's stock number sticks.
type stockProposal struct {
	motorID     int64
	quantity    int
	price       float64
	stockNumber string
	listings    []disposition
}

func (r *Reconciler) execute(ctx context.Context, mode types.RunMode, result *Result) error {
	listings, err := r.fetchListings(ctx, result)
	if err != nil {
		return err
	}

	motors, err := r.store.ListMotors(ctx)
	if err != nil {
		return err
	}

	dispositions := r.classify(listings, motors)
	proposals := aggregateProposals(dispositions)
	diff := stockDiff(motors, proposals)
	result.Run.Counters.NewlyInStock = diff.newlyIn
	result.Run.Counters.NewlyOutOfStock = diff.newlyOut

	if mode == types.ModePreview {
		r.preview(result, dispositions, diff)
		return nil
	}
	return r.apply(ctx, result, motors, dispositions, proposals)
}

// fetchListings fetches every active listing source with bounded concurrency.
// A failed source is removed from the run and recorded against its health
// ledger; the run only fails when no listing source survives.
func (r *Reconciler) fetchListings(ctx context.Context, result *Result) ([]types.Listing, error) {
	logger := logging.FromContext(ctx)

	var feeds []sources.ListingSource
	for _, src := range r.registry.Active() {
		if feed, ok := src.(sources.ListingSource); ok {
			feeds = append(feeds, feed)
		}
	}
	if len(feeds) == 0 {
		return nil, &errors.ValidationError{Field: "sources", Message: "no active listing sources registered"}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		listings  []types.Listing
		succeeded int
	)
	semaphore := make(chan struct{}, r.opts.fetchConcurrency)

	for _, feed := range feeds {
		wg.Add(1)
		go func(feed sources.ListingSource) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			name := feed.Descriptor().Name
			if err := feed.Fetch(ctx); err != nil {
				logger.Warn().Err(err).Str("source", name).Msg("Source fetch failed")
				result.sourceError(name, err)
				if recErr := r.store.RecordSourceFailure(context.WithoutCancel(ctx), name); recErr != nil {
					logger.Error().Err(recErr).Str("source", name).Msg("Failed to record source failure")
				}
				return
			}
			if recErr := r.store.RecordSourceSuccess(ctx, name); recErr != nil {
				logger.Error().Err(recErr).Str("source", name).Msg("Failed to record source success")
			}

			fetched := feed.Listings()
			mu.Lock()
			listings = append(listings, fetched...)
			succeeded++
			mu.Unlock()
			logger.Debug().Str("source", name).Int("listings", len(fetched)).Msg("Source fetched")
		}(feed)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if succeeded == 0 {
		return nil, errors.NewFetchError("all", "", stderrors.New("every listing source failed"))
	}
	return listings, nil
}

// classify scores each listing against the catalog and buckets it by the
// configured thresholds. Listings with no recognizable horsepower are
// unscoreable and never reach the queue.
func (r *Reconciler) classify(listings []types.Listing, motors []types.Motor) []disposition {
	dispositions := make([]disposition, 0, len(listings))
	for _, listing := range listings {
		d := disposition{listing: listing}

		if listing.Parsed.Horsepower == nil {
			d.outcome = types.OutcomeUnscoreable
			dispositions = append(dispositions, d)
			continue
		}

		d.candidates = r.opts.matcher.Candidates(listing, motors)
		if len(d.candidates) > 0 {
			d.best = &d.candidates[0]
		}

		switch {
		case d.best == nil || d.best.Score < r.opts.rejectFloor:
			d.outcome = types.OutcomeRejected
		case d.best.Score >= r.opts.autoAccept:
			d.outcome = types.OutcomeApplied
		default:
			d.outcome = types.OutcomeQueued
		}
		dispositions = append(dispositions, d)
	}
	return dispositions
}

// aggregateProposals folds auto-accepted listings into one stock write per
// motor, so two listings matching the same record never race each other.
func aggregateProposals(dispositions []disposition) map[int64]*stockProposal {
	proposals := make(map[int64]*stockProposal)
	for _, d := range dispositions {
		if d.outcome != types.OutcomeApplied {
			continue
		}
		p := proposals[d.best.MotorID]
		if p == nil {
			p = &stockProposal{motorID: d.best.MotorID, stockNumber: d.listing.StockNumber}
			proposals[d.best.MotorID] = p
		}
		p.quantity += d.listing.Quantity
		if d.listing.Price > p.price {
			p.price = d.listing.Price
		}
		if p.stockNumber == "" {
			p.stockNumber = d.listing.StockNumber
		}
		p.listings = append(p.listings, d)
	}
	return proposals
}

type diff struct {
	newlyIn  int
	newlyOut int
	stillIn  int
}

// stockDiff compares the proposed in-stock set against the catalog's current
// stock state. Any motor currently in stock that no listing matched this run
// goes out of stock, which is what the global reset-then-reassert sequence
// produces on apply.
func stockDiff(motors []types.Motor, proposals map[int64]*stockProposal) diff {
	var d diff
	for _, motor := range motors {
		_, proposed := proposals[motor.ID]
		switch {
		case proposed && !motor.InStock:
			d.newlyIn++
		case proposed && motor.InStock:
			d.stillIn++
		case !proposed && motor.InStock:
			d.newlyOut++
		}
	}
	return d
}

// preview records every disposition without touching the catalog and builds
// the capped detail listing.
func (r *Reconciler) preview(result *Result, dispositions []disposition, d diff) {
	preview := &Preview{
		NewlyInStock:    d.newlyIn,
		NewlyOutOfStock: d.newlyOut,
		StillInStock:    d.stillIn,
	}
	for _, disp := range dispositions {
		result.record(recordFor(disp, ""))
		if len(preview.Details) >= r.opts.previewCap {
			preview.DetailsTruncated = true
			continue
		}
		preview.Details = append(preview.Details, detailFor(disp))
	}
	result.Preview = preview
}

// apply performs the destructive half of a run: global stock reset, per-motor
// stock reassertion, review queue upserts, estimated price fill, and the
// enrichment pass. Per-record failures are collected rather than aborting.
func (r *Reconciler) apply(ctx context.Context, result *Result, motors []types.Motor, dispositions []disposition, proposals map[int64]*stockProposal) error {
	logger := logging.FromContext(ctx)

	if _, err := r.store.ResetStock(ctx); err != nil {
		return err
	}

	applied := make(map[string]bool)
	for _, p := range proposals {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.store.UpsertStock(ctx, p.motorID, p.quantity, p.price, p.stockNumber)
		for _, d := range p.listings {
			if err != nil {
				applied[d.listing.Key()] = false
				result.record(recordFor(d, err.Error()))
			} else {
				applied[d.listing.Key()] = true
			}
		}
		if err != nil {
			logger.Error().Err(err).Int64("motor_id", p.motorID).Msg("Stock write failed")
		}
	}

	for _, d := range dispositions {
		switch d.outcome {
		case types.OutcomeApplied:
			if ok, seen := applied[d.listing.Key()]; seen && ok {
				result.record(recordFor(d, ""))
			}
		case types.OutcomeQueued:
			if _, err := r.store.UpsertReviewEntry(ctx, d.listing, d.candidates); err != nil {
				logger.Error().Err(err).Str("listing", d.listing.Raw).Msg("Review queue write failed")
				result.record(recordFor(d, err.Error()))
				continue
			}
			result.record(recordFor(d, ""))
		default:
			result.record(recordFor(d, ""))
		}
	}

	r.fillEstimatedPrices(ctx, motors, proposals)

	if len(r.opts.enrichers) > 0 {
		r.enrichMotors(ctx, motors, proposals)
	}
	return ctx.Err()
}

// fillEstimatedPrices estimates a price for catalog records that ended the
// run with no vendor or dealer price at all. Estimation failures are skipped,
// never fatal.
func (r *Reconciler) fillEstimatedPrices(ctx context.Context, motors []types.Motor, proposals map[int64]*stockProposal) {
	logger := logging.FromContext(ctx)
	for _, motor := range motors {
		if motor.BasePrice > 0 || motor.DealerPrice > 0 {
			continue
		}
		if p, ok := proposals[motor.ID]; ok && p.price > 0 {
			continue
		}
		hp := motor.Horsepower
		estimate := r.opts.estimator.Estimate(&hp, motor.Family)
		if estimate == nil {
			continue
		}
		if err := r.store.SetEstimatedPrice(ctx, motor.ID, *estimate); err != nil {
			logger.Warn().Err(err).Int64("motor_id", motor.ID).Msg("Estimated price write failed")
		}
	}
}

// recordFor builds the diagnostic row for one disposition. A non-empty
// errMsg flips the outcome to failed.
func recordFor(d disposition, errMsg string) types.RecordResult {
	rec := types.RecordResult{
		Listing:  d.listing.Raw,
		Source:   d.listing.Source,
		Outcome:  d.outcome,
		Quantity: d.listing.Quantity,
		Error:    errMsg,
	}
	if d.best != nil {
		rec.MotorID = d.best.MotorID
		rec.Score = d.best.Score
	}
	if errMsg != "" {
		rec.Outcome = types.OutcomeFailed
	}
	return rec
}

func detailFor(d disposition) ListingDetail {
	detail := ListingDetail{
		Listing:  d.listing.Raw,
		Source:   d.listing.Source,
		Outcome:  d.outcome,
		Quantity: d.listing.Quantity,
		Price:    d.listing.Price,
	}
	if d.best != nil {
		detail.MotorID = d.best.MotorID
		detail.ModelDisplay = d.best.ModelDisplay
		detail.Score = d.best.Score
		detail.Justification = d.best.Justification
	}
	return detail
}

// detailsJSON serializes the per-record diagnostics for the run's audit row.
func (r *Result) detailsJSON() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload := struct {
		Records      []types.RecordResult `json:"records,omitempty"`
		SourceErrors map[string]string    `json:"source_errors,omitempty"`
	}{Records: r.Records, SourceErrors: r.SourceErrors}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
