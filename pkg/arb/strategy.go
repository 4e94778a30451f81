package arb

import (
	"context"
	"errors"
	"fmt"

	cosmath "cosmossdk.io/math"
	"go.uber.org/zap"
	"solarb/pkg/market"
)

// FileSource reads a persisted selection back from a strategy file.
type FileSource interface {
	ReadVec(path string) (VecSwapPathSelected, error)
}

// Strategy runs the discovery pipeline for one configuration: enumerate,
// price, select, persist. Multiple Strategy runs share one immutable graph
// snapshot.
type Strategy struct {
	graph            *market.Graph
	selector         *Selector
	pricer           *Pricer
	simulationAmount cosmath.Int
	bridging         []string
	referenceMints   []string
	logger           *zap.Logger
}

// NewStrategy wires a runner over a graph snapshot. bridging is the allowed
// 2-hop intermediate set; referenceMints, when non-empty, enables the
// selector's denomination restriction.
func NewStrategy(graph *market.Graph, selector *Selector, simulationAmount cosmath.Int, bridging, referenceMints []string, logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{
		graph:            graph,
		selector:         selector,
		pricer:           NewPricer(logger),
		simulationAmount: simulationAmount,
		bridging:         bridging,
		referenceMints:   referenceMints,
		logger:           logger,
	}
}

// Run executes the pipeline for one configuration and returns the persisted
// selection and its file path. Per-path failures (overflow, missing data)
// are logged and skipped; they never abort the run. A persistence failure is
// surfaced with the completed in-memory selection intact.
func (s *Strategy) Run(ctx context.Context, iv InputVec, infos TokenInfos) (VecSwapPathSelected, string, error) {
	strategy := iv.StrategyName()
	logger := s.logger.With(zap.String("strategy", strategy))

	for _, t := range iv.TokensToArb {
		if _, ok := infos[t.Address]; !ok {
			return VecSwapPathSelected{}, "", fmt.Errorf("%w: no metadata for token %s (%s)", ErrDataUnavailable, t.Symbol, t.Address)
		}
	}

	enumerator := NewEnumerator(s.graph, logger)
	paths, err := enumerator.Enumerate(iv, s.bridging)
	if err != nil {
		return VecSwapPathSelected{}, "", err
	}
	logger.Info("candidate paths enumerated", zap.Int("paths", len(paths)))

	results := make([]SwapPathResult, 0, len(paths))
	for _, path := range paths {
		result, err := s.pricer.Price(path, s.simulationAmount, s.graph)
		if err != nil {
			if errors.Is(err, ErrNumericOverflow) || errors.Is(err, ErrDataUnavailable) {
				logger.Warn("path discarded",
					zap.String("path", path.ID()),
					zap.Error(err))
				continue
			}
			return VecSwapPathSelected{}, "", fmt.Errorf("price path %s: %w", path.ID(), err)
		}
		results = append(results, result)
	}

	return s.selector.Select(ctx, strategy, results, iv.NumbersOfBestPaths, s.referenceMints)
}
