package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// BatchResult pairs a lead with the outcome of its qualification run.
type BatchResult struct {
	LeadID string
	State  *models.WorkflowState
	Err    error
}

// Batch qualifies a set of leads concurrently, at most concurrency runs at a
// time. Each lead gets its own workflow thread; a failed run does not stop
// the others. Results come back in input order.
func (e *Engine) Batch(ctx context.Context, leadIDs []string, concurrency int) []BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(leadIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, leadID := range leadIDs {
		g.Go(func() error {
			state, err := e.Start(gctx, leadID)
			results[i] = BatchResult{LeadID: leadID, State: state, Err: err}
			return nil
		})
	}
	// Workers only record errors, they never return them, so Wait cannot fail.
	_ = g.Wait()

	return results
}
