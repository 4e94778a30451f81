package arb

import (
	"fmt"

	"go.uber.org/zap"
	"solarb/pkg/market"
)

// Enumerator generates candidate swap cycles over one graph snapshot.
type Enumerator struct {
	graph  *market.Graph
	logger *zap.Logger
}

func NewEnumerator(graph *market.Graph, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{graph: graph, logger: logger}
}

// Enumerate produces the distinct cycles for one configuration. A 1-hop path
// swaps base→target→base; a 2-hop path swaps base→intermediate→target→base
// with intermediates restricted to the configuration's token set plus the
// bridging allow list. Parallel pools between the same pair each produce a
// distinct path. Output order is stable for identical input: targets in
// configuration order, then graph edge order (token pair, venue, pool ID).
func (e *Enumerator) Enumerate(iv InputVec, bridging []string) ([]SwapPath, error) {
	if len(iv.TokensToArb) < 2 {
		return nil, fmt.Errorf("%w: configuration needs a base token and at least one target", ErrInvalidInput)
	}

	base := iv.BaseToken().Address
	targets := make([]string, 0, len(iv.TokensToArb)-1)
	for _, t := range iv.TokensToArb[1:] {
		if t.Address == base {
			continue
		}
		targets = append(targets, t.Address)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no target tokens besides the base", ErrInvalidInput)
	}

	// Intermediates for 2-hop cycles: the target set itself plus the
	// bridging allow list, minus the base.
	intermediates := make([]string, 0, len(targets)+len(bridging))
	seen := map[string]bool{base: true}
	for _, t := range targets {
		if !seen[t] {
			intermediates = append(intermediates, t)
			seen[t] = true
		}
	}
	for _, b := range bridging {
		if !seen[b] {
			intermediates = append(intermediates, b)
			seen[b] = true
		}
	}

	var paths []SwapPath

	if iv.Include1Hop {
		for _, target := range targets {
			out := e.graph.EdgesBetween(base, target)
			back := e.graph.EdgesBetween(target, base)
			for _, e1 := range out {
				for _, e2 := range back {
					paths = append(paths, SwapPath{
						BaseToken: base,
						Hops:      []Hop{edgeHop(e1), edgeHop(e2)},
					})
				}
			}
		}
	}

	if iv.Include2Hop {
		for _, mid := range intermediates {
			for _, target := range targets {
				if target == mid {
					continue
				}
				first := e.graph.EdgesBetween(base, mid)
				second := e.graph.EdgesBetween(mid, target)
				third := e.graph.EdgesBetween(target, base)
				for _, e1 := range first {
					for _, e2 := range second {
						for _, e3 := range third {
							paths = append(paths, SwapPath{
								BaseToken: base,
								Hops:      []Hop{edgeHop(e1), edgeHop(e2), edgeHop(e3)},
							})
						}
					}
				}
			}
		}
	}

	e.logger.Debug("enumerated candidate paths",
		zap.String("base", base),
		zap.Int("targets", len(targets)),
		zap.Int("paths", len(paths)))

	return paths, nil
}

func edgeHop(e market.Edge) Hop {
	return Hop{
		PoolID:   e.Pool.GetID(),
		Venue:    string(e.Pool.ProtocolName()),
		TokenIn:  e.TokenIn,
		TokenOut: e.TokenOut,
	}
}
