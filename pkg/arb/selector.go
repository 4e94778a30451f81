package arb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// FileSink persists a selection as a JSON strategy file and returns the
// written path.
type FileSink interface {
	WriteVec(name string, vec VecSwapPathSelected) (string, error)
}

// DocumentSink inserts a selection into a named document-store collection.
type DocumentSink interface {
	InsertVec(ctx context.Context, collection string, vec VecSwapPathSelected) error
}

// Selector orders priced paths by profit and keeps the top K for one
// configuration, persisting the selection exactly once per run.
type Selector struct {
	files      FileSink
	docs       DocumentSink
	collection string
	logger     *zap.Logger
	now        func() time.Time
}

func NewSelector(files FileSink, docs DocumentSink, collection string, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		files:      files,
		docs:       docs,
		collection: collection,
		logger:     logger,
		now:        time.Now,
	}
}

// Select ranks results by profit descending, ties broken by lower aggregate
// price impact and then by enumeration order, and keeps at most k entries.
// Only qualifying paths count: a path with zero or negative profit is never
// selected, so k is a hard cap and fewer qualifying paths yield a shorter
// list. When reference mints are given, 2-hop paths whose bridging token is
// not in the list are dropped before ranking.
//
// The selection is persisted to both sinks. A persistence failure is
// returned wrapped in ErrPersistence together with the completed in-memory
// selection; it is not retried.
func (s *Selector) Select(ctx context.Context, strategy string, results []SwapPathResult, k int, referenceMints []string) (VecSwapPathSelected, string, error) {
	if k <= 0 {
		return VecSwapPathSelected{}, "", fmt.Errorf("%w: best path count must be positive", ErrInvalidInput)
	}

	filtered := results
	if len(referenceMints) > 0 {
		allowed := make(map[string]bool, len(referenceMints))
		for _, m := range referenceMints {
			allowed[m] = true
		}
		kept := make([]SwapPathResult, 0, len(results))
		for _, r := range results {
			if bridgeAllowed(r.Path, allowed) {
				kept = append(kept, r)
			}
		}
		filtered = kept
	}

	ranked := make([]SwapPathResult, 0, len(filtered))
	for _, r := range filtered {
		if r.Profit.IsPositive() {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].Profit.Equal(ranked[j].Profit) {
			return ranked[i].Profit.GT(ranked[j].Profit)
		}
		return ranked[i].AggregateImpactBps() < ranked[j].AggregateImpactBps()
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	selectedAt := s.now()
	vec := VecSwapPathSelected{Value: make([]SwapPathSelected, 0, len(ranked))}
	for _, r := range ranked {
		vec.Value = append(vec.Value, SwapPathSelected{
			Strategy:  strategy,
			CreatedAt: selectedAt,
			Result:    r,
		})
	}

	s.logger.Info("selection complete",
		zap.String("strategy", strategy),
		zap.Int("candidates", len(results)),
		zap.Int("selected", len(vec.Value)))

	path, err := s.persist(ctx, strategy, vec)
	if err != nil {
		return vec, path, err
	}
	return vec, path, nil
}

func (s *Selector) persist(ctx context.Context, strategy string, vec VecSwapPathSelected) (string, error) {
	var filePath string
	if s.files != nil {
		p, err := s.files.WriteVec(strategy, vec)
		if err != nil {
			return "", fmt.Errorf("%w: write strategy file %s: %v", ErrPersistence, strategy, err)
		}
		filePath = p
	}

	if s.docs != nil {
		if err := s.docs.InsertVec(ctx, s.collection, vec); err != nil {
			return filePath, fmt.Errorf("%w: insert strategy %s into %s: %v", ErrPersistence, strategy, s.collection, err)
		}
	}

	return filePath, nil
}

// bridgeAllowed checks the denomination restriction: a 2-hop cycle must
// bridge through an allow-listed reference mint. Direct 1-hop cycles always
// pass.
func bridgeAllowed(path SwapPath, allowed map[string]bool) bool {
	if len(path.Hops) < 3 {
		return true
	}
	return allowed[path.Hops[0].TokenOut]
}
