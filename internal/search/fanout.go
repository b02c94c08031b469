package search

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MaxQueries caps the number of API calls a single fetch-all may spend; at
// ten results per call this also matches the API's 100-result ceiling.
const MaxQueries = 10

// Combined is the merged view of every page fetched for one query.
type Combined struct {
	Results      []Result
	TotalResults int64
	SearchTime   float64
}

// FetchAll fetches the first page, then the remaining pages concurrently,
// and merges them in start-index order so overall ranking is preserved. A
// failed page is dropped rather than failing the whole query; the first page
// failing is fatal because there is nothing to serve.
func FetchAll(ctx context.Context, r *Rotator, engine, query, sortBy string, maxQueries int) (*Combined, error) {
	if maxQueries <= 0 || maxQueries > MaxQueries {
		maxQueries = MaxQueries
	}
	first, err := r.Search(ctx, engine, query, 1, sortBy)
	if err != nil {
		return nil, err
	}

	pages := map[int][]Result{1: first.Results}
	totalTime := first.SearchTime

	remaining := int((first.TotalResults - 1) / PageSize)
	if remaining > maxQueries-1 {
		remaining = maxQueries - 1
	}
	if remaining > 0 && first.NextStart > 0 {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < remaining; i++ {
			start := first.NextStart + i*PageSize
			if start > MaxStart {
				break
			}
			g.Go(func() error {
				page, err := r.Search(gctx, engine, query, start, sortBy)
				if err != nil {
					// Drop the page; the merged view stays partial.
					return nil
				}
				mu.Lock()
				pages[start] = page.Results
				totalTime += page.SearchTime
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	starts := make([]int, 0, len(pages))
	for s := range pages {
		starts = append(starts, s)
	}
	sort.Ints(starts)

	out := &Combined{TotalResults: first.TotalResults}
	for _, s := range starts {
		out.Results = append(out.Results, pages[s]...)
	}
	out.SearchTime = math.Round(totalTime*100) / 100
	return out, nil
}
