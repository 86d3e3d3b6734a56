package reconcile

import (
	"context"
	"sync"

	"github.com/harborline/motorsync/pkg/enrich"
	"github.com/harborline/motorsync/pkg/logging"
	"github.com/harborline/motorsync/pkg/types"
)

// enrichMotors runs the opportunistic enrichment pass over the motors that
// matched this run. Each motor is owned by exactly one worker, so its
// enrichment fetches and the resulting write happen in order. Enrichment
// touches descriptive fields only; stock and price are never modified here.
func (r *Reconciler) enrichMotors(ctx context.Context, motors []types.Motor, proposals map[int64]*stockProposal) {
	logger := logging.FromContext(ctx)

	byID := make(map[int64]types.Motor, len(motors))
	for _, motor := range motors {
		byID[motor.ID] = motor
	}

	var (
		wg        sync.WaitGroup
		healthMu  sync.Mutex
		succeeded = make(map[string]bool)
		failed    = make(map[string]bool)
	)
	semaphore := make(chan struct{}, r.opts.enrichWorkers)

	for id := range proposals {
		motor, ok := byID[id]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(motor types.Motor) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			var contributions []enrich.SourceEnrichment
			for _, enricher := range r.opts.enrichers {
				name := enricher.Descriptor().Name
				partial, err := enricher.EnrichmentFor(ctx, motor)
				if err != nil {
					logger.Debug().Err(err).Str("source", name).Int64("motor_id", motor.ID).Msg("Enrichment fetch failed")
					healthMu.Lock()
					failed[name] = true
					healthMu.Unlock()
					continue
				}
				healthMu.Lock()
				succeeded[name] = true
				healthMu.Unlock()
				if partial == nil || partial.IsEmpty() {
					continue
				}
				contributions = append(contributions, enrich.SourceEnrichment{
					Source:     enricher.Descriptor(),
					Enrichment: *partial,
				})
			}

			if len(contributions) == 0 && (motor.Override == nil || motor.Override.Empty()) {
				return
			}
			merged := enrich.Merge(contributions, motor.Override)
			if err := r.store.ApplyEnrichment(ctx, motor.ID, merged.Enrichment, merged.Quality, merged.Origins); err != nil {
				logger.Warn().Err(err).Int64("motor_id", motor.ID).Msg("Enrichment write failed")
			}
		}(motor)
	}
	wg.Wait()

	// One health nudge per source per run, not per record.
	for name := range succeeded {
		if err := r.store.RecordSourceSuccess(context.WithoutCancel(ctx), name); err != nil {
			logger.Error().Err(err).Str("source", name).Msg("Failed to record source success")
		}
	}
	for name := range failed {
		if succeeded[name] {
			continue
		}
		if err := r.store.RecordSourceFailure(context.WithoutCancel(ctx), name); err != nil {
			logger.Error().Err(err).Str("source", name).Msg("Failed to record source failure")
		}
	}
}
