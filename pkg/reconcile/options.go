package reconcile

import (
	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/match"
	"github.com/harborline/motorsync/pkg/pricing"
	"github.com/harborline/motorsync/pkg/sources"
)

// Default threshold and pipeline settings. Thresholds are score points on
// the 0-100 match scale.
const (
	DefaultAutoAcceptThreshold = 70
	DefaultRejectFloor         = 30
	DefaultFetchConcurrency    = 4
	DefaultEnrichConcurrency   = 4
	DefaultPreviewDetailCap    = 50
)

// options configures a Reconciler.
type options struct {
	autoAccept       int
	rejectFloor      int
	fetchConcurrency int
	enrichWorkers    int
	previewCap       int
	matcher          *match.Matcher
	estimator        *pricing.Estimator
	enrichers        []sources.EnrichmentSource
}

func defaultOptions() *options {
	return &options{
		autoAccept:       DefaultAutoAcceptThreshold,
		rejectFloor:      DefaultRejectFloor,
		fetchConcurrency: DefaultFetchConcurrency,
		enrichWorkers:    DefaultEnrichConcurrency,
		previewCap:       DefaultPreviewDetailCap,
		matcher:          match.NewMatcher(match.Default()...),
		estimator:        pricing.NewEstimator(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithThresholds sets the auto-accept threshold and the reject floor.
// Listings scoring in [floor, autoAccept) are queued for human review.
func WithThresholds(autoAccept, rejectFloor int) Option {
	return func(o *options) error {
		if autoAccept < 0 || autoAccept > 100 {
			return &errors.ValidationError{Field: "autoAccept", Message: "must be between 0 and 100"}
		}
		if rejectFloor < 0 || rejectFloor > autoAccept {
			return &errors.ValidationError{Field: "rejectFloor", Message: "must be between 0 and the auto-accept threshold"}
		}
		o.autoAccept = autoAccept
		o.rejectFloor = rejectFloor
		return nil
	}
}

// WithFetchConcurrency bounds the number of sources fetched in parallel.
func WithFetchConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "fetchConcurrency", Message: "must be at least 1"}
		}
		o.fetchConcurrency = n
		return nil
	}
}

// WithEnrichWorkers bounds the number of per-record enrichment fetches in
// flight at once during an apply run.
func WithEnrichWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "enrichWorkers", Message: "must be at least 1"}
		}
		o.enrichWorkers = n
		return nil
	}
}

// WithPreviewDetailCap caps the per-listing detail rows kept in a preview
// result. Counters always cover the full run.
func WithPreviewDetailCap(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return &errors.ValidationError{Field: "previewCap", Message: "must not be negative"}
		}
		o.previewCap = n
		return nil
	}
}

// WithMatcher sets the match strategy pipeline.
func WithMatcher(matcher *match.Matcher) Option {
	return func(o *options) error {
		if matcher == nil {
			return &errors.ValidationError{Field: "matcher", Message: "cannot be nil"}
		}
		o.matcher = matcher
		return nil
	}
}

// WithEstimator sets the fallback price estimator.
func WithEstimator(estimator *pricing.Estimator) Option {
	return func(o *options) error {
		if estimator == nil {
			return &errors.ValidationError{Field: "estimator", Message: "cannot be nil"}
		}
		o.estimator = estimator
		return nil
	}
}

// WithEnrichers sets the per-record enrichment sources.
func WithEnrichers(enrichers ...sources.EnrichmentSource) Option {
	return func(o *options) error {
		o.enrichers = enrichers
		return nil
	}
}
