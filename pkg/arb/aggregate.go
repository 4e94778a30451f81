package arb

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Aggregator merges the selections of several configuration runs into one
// combined strategy set. Merging is order-preserving concatenation, never
// re-ranking; downstream consumers re-rank if they need to.
type Aggregator struct {
	files      FileSink
	docs       DocumentSink
	collection string
	logger     *zap.Logger
}

func NewAggregator(files FileSink, docs DocumentSink, collection string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		files:      files,
		docs:       docs,
		collection: collection,
		logger:     logger,
	}
}

// MergedName joins the originating strategy names in run order, each
// prefixed with its index: "0-SOL-SOLLY-1-SOL-SPIKE".
func MergedName(names []string) string {
	parts := make([]string, 0, len(names))
	for i, name := range names {
		parts = append(parts, fmt.Sprintf("%d-%s", i, name))
	}
	return strings.Join(parts, "-")
}

// Merge concatenates the given selections in run order under the merged
// strategy name and persists the result the same way the selector does.
// A persistence failure is returned alongside the completed merge.
func (a *Aggregator) Merge(ctx context.Context, names []string, vecs []VecSwapPathSelected) (VecSwapPathSelected, string, error) {
	if len(names) != len(vecs) {
		return VecSwapPathSelected{}, "", fmt.Errorf("%w: %d names for %d selections", ErrInvalidInput, len(names), len(vecs))
	}
	if len(vecs) < 2 {
		return VecSwapPathSelected{}, "", fmt.Errorf("%w: aggregation needs at least two selections", ErrInvalidInput)
	}

	merged := VecSwapPathSelected{}
	for _, vec := range vecs {
		merged.Value = append(merged.Value, vec.Value...)
	}

	name := MergedName(names)
	a.logger.Info("aggregated strategies",
		zap.String("merged", name),
		zap.Int("inputs", len(vecs)),
		zap.Int("paths", len(merged.Value)))

	var filePath string
	if a.files != nil {
		p, err := a.files.WriteVec(name, merged)
		if err != nil {
			return merged, "", fmt.Errorf("%w: write merged strategy %s: %v", ErrPersistence, name, err)
		}
		filePath = p
	}

	if a.docs != nil {
		if err := a.docs.InsertVec(ctx, a.collection, merged); err != nil {
			return merged, filePath, fmt.Errorf("%w: insert merged strategy into %s: %v", ErrPersistence, a.collection, err)
		}
	}

	return merged, filePath, nil
}
