package discovery

import (
	"context"
	"sync"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

// EnrichFromExternalDetails backfills hours, photos, and contact details for
// up to limit candidates, taken in order, that are missing hours or photos.
// Candidates are updated in place and persisted. Failures are logged and
// skipped. It returns how many candidates received new details.
func (e *Engine) EnrichFromExternalDetails(ctx context.Context, candidates []place.Candidate, limit int) int {
	if e.source == nil || limit <= 0 {
		return 0
	}
	var targets []int
	for i := range candidates {
		if len(targets) >= limit {
			break
		}
		if candidates[i].NeedsDetails() && candidates[i].PrimaryExternalID() != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return 0
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.cfg.EnrichConcurrency)
	enriched := 0
	for _, idx := range targets {
		wg.Add(1)
		go func(c *place.Candidate) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if !budgetFrom(ctx).take() {
				e.logger.Debug("skipping enrichment, call budget exhausted", "candidate", c.ID)
				return
			}
			callCtx, cancel := context.WithTimeout(ctx, e.cfg.ExternalCallTimeout)
			defer cancel()
			d, err := e.source.FetchDetails(callCtx, c.PrimaryExternalID())
			if err != nil {
				e.logger.Warn("fetching details failed", "candidate", c.ID, "name", c.Name, "error", err)
				return
			}
			if d.Empty() {
				return
			}
			c.ApplyDetails(d)
			if err := e.store.EnrichDetails(ctx, c.ID, d); err != nil {
				e.logger.Warn("saving details failed", "candidate", c.ID, "error", err)
			}
			mu.Lock()
			enriched++
			mu.Unlock()
		}(&candidates[idx])
	}
	wg.Wait()
	e.logger.Debug("enrichment complete", "requested", len(targets), "enriched", enriched)
	return enriched
}
