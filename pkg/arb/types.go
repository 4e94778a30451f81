package arb

import (
	"strings"
	"time"

	cosmath "cosmossdk.io/math"
)

// TokenInArb is one token of a configuration's arbitrage set. The first
// entry of a configuration is the base token every cycle starts and ends at.
type TokenInArb struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// TokenInfo is the per-token metadata resolved once per run.
type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TokenInfos maps token address to metadata. Resolved before pricing starts
// and passed by value so a run never observes a mid-pass refresh.
type TokenInfos map[string]TokenInfo

// InputVec is one immutable configuration record for a pipeline run.
type InputVec struct {
	TokensToArb        []TokenInArb `json:"tokens_to_arb"`
	Include1Hop        bool         `json:"include_1hop"`
	Include2Hop        bool         `json:"include_2hop"`
	NumbersOfBestPaths int          `json:"numbers_of_best_paths"`
	GetFreshPools      bool         `json:"get_fresh_pools"`
}

// StrategyName derives the configuration identifier from the token symbols,
// e.g. "SOL-SPIKE".
func (iv InputVec) StrategyName() string {
	symbols := make([]string, 0, len(iv.TokensToArb))
	for _, t := range iv.TokensToArb {
		symbols = append(symbols, t.Symbol)
	}
	return strings.Join(symbols, "-")
}

// BaseToken returns the base token of the configuration.
func (iv InputVec) BaseToken() TokenInArb {
	if len(iv.TokensToArb) == 0 {
		return TokenInArb{}
	}
	return iv.TokensToArb[0]
}

// Hop is one swap through one pool.
type Hop struct {
	PoolID   string `json:"pool_id"`
	Venue    string `json:"venue"`
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
}

// SwapPath is a cycle of one or two hops starting and ending at the base
// token.
type SwapPath struct {
	BaseToken string `json:"base_token"`
	Hops      []Hop  `json:"hops"`
}

// ID is a stable identity for the path: pool IDs and directions in hop order.
func (p SwapPath) ID() string {
	parts := make([]string, 0, len(p.Hops))
	for _, h := range p.Hops {
		parts = append(parts, h.PoolID+":"+h.TokenIn+">"+h.TokenOut)
	}
	return strings.Join(parts, "|")
}

// Touches reports whether the path routes through the given pool.
func (p SwapPath) Touches(poolID string) bool {
	for _, h := range p.Hops {
		if h.PoolID == poolID {
			return true
		}
	}
	return false
}

// PoolIDs returns the pools the path routes through, in hop order.
func (p SwapPath) PoolIDs() []string {
	ids := make([]string, 0, len(p.Hops))
	for _, h := range p.Hops {
		ids = append(ids, h.PoolID)
	}
	return ids
}

// HopAmount is the simulated amount flow and price impact of one hop.
type HopAmount struct {
	AmountIn       cosmath.Int `json:"amount_in"`
	AmountOut      cosmath.Int `json:"amount_out"`
	PriceImpactBps int64       `json:"price_impact_bps"`
}

// SwapPathResult is a priced path. It is valid only against the reserve
// snapshot it was computed from and is recomputed rather than mutated.
type SwapPathResult struct {
	Path       SwapPath    `json:"path"`
	AmountIn   cosmath.Int `json:"amount_in"`
	AmountOut  cosmath.Int `json:"amount_out"`
	Profit     cosmath.Int `json:"profit"`
	ProfitBps  int64       `json:"profit_bps"`
	HopAmounts []HopAmount `json:"hop_amounts"`
}

// AggregateImpactBps sums the per-hop price impact, used as the ranking
// tie-breaker and the monitor's risk cap.
func (r SwapPathResult) AggregateImpactBps() int64 {
	var total int64
	for _, h := range r.HopAmounts {
		total += h.PriceImpactBps
	}
	return total
}

// SwapPathSelected is one selector-chosen result tagged with its originating
// strategy and selection time.
type SwapPathSelected struct {
	Strategy  string         `json:"strategy"`
	CreatedAt time.Time      `json:"created_at"`
	Result    SwapPathResult `json:"result"`
}

// VecSwapPathSelected is the unit of file serialization and the aggregator's
// merge input and output.
type VecSwapPathSelected struct {
	Value []SwapPathSelected `json:"value"`
}
