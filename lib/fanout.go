package lib

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultFanOutLimit caps concurrent in-flight remote calls during fan-out
// operations. Kept fixed to stay under Azure throttling limits.
const DefaultFanOutLimit = 20

// FanOut applies fn to every item with at most limit concurrent calls.
// A failing item is logged and dropped; it never aborts its siblings.
// Output order is unspecified. Callers that need per-item failure detail
// must fold errors into R inside fn and always return nil.
func FanOut[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []R {
	if limit <= 0 {
		limit = DefaultFanOutLimit
	}

	var (
		mu      sync.Mutex
		results []R
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			res, err := fn(ctx, item)
			if err != nil {
				log.Errorf("fan-out task failed: %s", err)
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	// Tasks never return errors, so Wait only synchronizes.
	_ = g.Wait()

	return results
}
