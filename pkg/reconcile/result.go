package reconcile

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harborline/motorsync/pkg/types"
)

// Result is the outcome of one reconciliation run. Counters cover every
// listing processed; Records holds the per-listing diagnostics persisted into
// the run's audit row; SourceErrors maps source name to the failure that took
// it out of the run.
type Result struct {
	mu sync.Mutex

	Run          *types.SyncRun       `json:"run"`
	Records      []types.RecordResult `json:"records,omitempty"`
	SourceErrors map[string]string    `json:"source_errors,omitempty"`
	Preview      *Preview             `json:"preview,omitempty"`
	Duration     time.Duration        `json:"duration"`
}

// Preview is the dry-run diff an apply would produce. Detail rows are capped
// so a large feed cannot balloon the response; the counts are exact.
type Preview struct {
	NewlyInStock     int             `json:"newly_in_stock"`
	NewlyOutOfStock  int             `json:"newly_out_of_stock"`
	StillInStock     int             `json:"still_in_stock"`
	Details          []ListingDetail `json:"details,omitempty"`
	DetailsTruncated bool            `json:"details_truncated,omitempty"`
}

// ListingDetail is one listing's disposition shown in a preview.
type ListingDetail struct {
	Listing       string              `json:"listing"`
	Source        string              `json:"source"`
	Outcome       types.RecordOutcome `json:"outcome"`
	MotorID       int64               `json:"motor_id,omitempty"`
	ModelDisplay  string              `json:"model_display,omitempty"`
	Score         int                 `json:"score"`
	Justification string              `json:"justification,omitempty"`
	Quantity      int                 `json:"quantity,omitempty"`
	Price         float64             `json:"price,omitempty"`
}

func newResult(run *types.SyncRun) *Result {
	return &Result{
		Run:          run,
		SourceErrors: make(map[string]string),
	}
}

// record appends a per-listing diagnostic and bumps the matching counter.
// Safe for concurrent use by pipeline workers.
func (r *Result) record(rec types.RecordResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Records = append(r.Records, rec)
	r.Run.Counters.Processed++
	switch rec.Outcome {
	case types.OutcomeApplied:
		r.Run.Counters.Matched++
	case types.OutcomeQueued:
		r.Run.Counters.QueuedForReview++
	case types.OutcomeRejected, types.OutcomeUnscoreable:
		r.Run.Counters.Rejected++
	case types.OutcomeFailed:
		r.Run.Counters.Failed++
	}
}

// sourceError notes a source that failed this run.
func (r *Result) sourceError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SourceErrors[name] = err.Error()
}

// finalize sorts diagnostics for stable output and stamps the duration.
func (r *Result) finalize(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(r.Records, func(i, j int) bool {
		return r.Records[i].Listing < r.Records[j].Listing
	})
	r.Duration = time.Since(started)
}

// Summary renders a one-line human summary of the run.
func (r *Result) Summary() string {
	c := r.Run.Counters
	return fmt.Sprintf("%s run %s: %d processed, %d matched, %d queued, %d rejected, %d failed (+%d/-%d stock) in %s",
		r.Run.Mode, r.Run.Status, c.Processed, c.Matched, c.QueuedForReview, c.Rejected, c.Failed,
		c.NewlyInStock, c.NewlyOutOfStock, r.Duration.Round(time.Millisecond))
}
