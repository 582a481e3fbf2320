package enrich

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/model"
)

// DefaultConcurrency bounds the batch worker pool when no limit is configured.
const DefaultConcurrency = 5

// Orchestrator fans out single-contact applies across a bounded worker pool
// and aggregates per-pair outcomes. One pair's failure never aborts the rest.
type Orchestrator struct {
	applier     *Applier
	concurrency int
}

// NewOrchestrator creates a batch orchestrator with the given pool size.
func NewOrchestrator(applier *Applier, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{applier: applier, concurrency: concurrency}
}

// Run processes every pair independently and returns the aggregate result.
// Succeeded+Failed always equals len(pairs). Only an empty batch is a
// top-level error; individual failures land in the result's Errors list.
//
// Two pairs for the same contact cannot be safely applied concurrently, so
// only the first occurrence of each contact ID is attempted; later
// duplicates are recorded as failed pairs.
//
// Cancellation stops further dispatch: pairs not yet started are recorded
// as failed with the context error while already-running applies finish.
func (o *Orchestrator) Run(ctx context.Context, pairs []model.EnrichPair) (*model.BatchResult, error) {
	if len(pairs) == 0 {
		return nil, eris.New("enrich: empty batch")
	}

	zap.L().Info("processing enrichment batch",
		zap.Int("pairs", len(pairs)),
		zap.Int("concurrency", o.concurrency),
	)

	result := &model.BatchResult{}
	var mu sync.Mutex

	seen := make(map[string]bool, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, pair := range pairs {
		// A canceled caller stops dispatch; in-flight applies finish on
		// their own. Undispatched pairs are recorded as failed so the
		// count invariant holds.
		if err := ctx.Err(); err != nil {
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s", pair.ContactID, err.Error()))
			mu.Unlock()
			continue
		}

		if seen[pair.ContactID] {
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: duplicate contact in batch", pair.ContactID))
			mu.Unlock()
			continue
		}
		seen[pair.ContactID] = true

		g.Go(func() error {
			outcome, err := o.applier.Apply(gctx, pair.ContactID, pair.Profile, pair.SelectedKeys)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: %s", pair.ContactID, err.Error()))
				zap.L().Error("pair enrichment failed",
					zap.String("contact_id", pair.ContactID),
					zap.Error(err),
				)
				return nil // don't abort the batch on individual failure
			}

			result.Succeeded++
			if outcome.CompanyCreated {
				result.CompaniesCreated++
			}
			result.UpdatedContacts = append(result.UpdatedContacts, *outcome.Contact)
			return nil
		})
	}

	// Workers only ever return nil; Wait is for completion, not errors.
	_ = g.Wait()

	zap.L().Info("enrichment batch complete",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("companies_created", result.CompaniesCreated),
	)

	return result, nil
}
