package catalog

import (
	"log/slog"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"marquee/internal/domain"
)

// Raw is one resolver output element: either a remote record awaiting
// normalization or an item a resolver built directly.
type Raw struct {
	Record *RemoteRecord
	Item   *domain.Item
}

// TransformFunc converts one raw element into a canonical item. A nil
// item with a nil error is treated as "skip".
type TransformFunc func(Raw) (*domain.Item, error)

// Runner applies a transform across a batch of raw records. Both
// implementations produce identical, input-ordered output for the same
// input; elements whose transform fails are dropped and logged, never
// escalated.
type Runner interface {
	Map(fn TransformFunc, raws []Raw) []*domain.Item
}

// NewRunner selects the execution strategy once, at startup.
func NewRunner(parallel bool, logger *slog.Logger) Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if parallel {
		return &parallelRunner{workers: runtime.GOMAXPROCS(0), logger: logger}
	}
	return &serialRunner{logger: logger}
}

// parallelRunner fans the transform out over a bounded worker pool and
// collects results index-aligned, so input order is preserved regardless
// of completion order.
type parallelRunner struct {
	workers int
	logger  *slog.Logger
}

func (r *parallelRunner) Map(fn TransformFunc, raws []Raw) []*domain.Item {
	if len(raws) == 0 {
		return nil
	}

	results := make([]*domain.Item, len(raws))
	p := pool.New().WithMaxGoroutines(r.workers)
	for i := range raws {
		p.Go(func() {
			item, err := fn(raws[i])
			if err != nil {
				r.logger.Warn("dropping record from batch", "index", i, "error", err)
				return
			}
			results[i] = item
		})
	}
	p.Wait()

	return compact(results)
}

// serialRunner applies the transform strictly in order.
type serialRunner struct {
	logger *slog.Logger
}

func (r *serialRunner) Map(fn TransformFunc, raws []Raw) []*domain.Item {
	if len(raws) == 0 {
		return nil
	}

	results := make([]*domain.Item, len(raws))
	for i := range raws {
		item, err := fn(raws[i])
		if err != nil {
			r.logger.Warn("dropping record from batch", "index", i, "error", err)
			continue
		}
		results[i] = item
	}
	return compact(results)
}

// compact removes dropped (nil) slots while keeping relative order
func compact(results []*domain.Item) []*domain.Item {
	items := make([]*domain.Item, 0, len(results))
	for _, it := range results {
		if it != nil {
			items = append(items, it)
		}
	}
	return items
}
