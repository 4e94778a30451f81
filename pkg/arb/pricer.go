package arb

import (
	"fmt"

	cosmath "cosmossdk.io/math"
	"go.uber.org/zap"
	"solarb/pkg"
)

// PoolSource resolves pool snapshots by ID. Both the market graph and the
// monitor's live store satisfy it.
type PoolSource interface {
	Pool(id string) (pkg.Pool, bool)
}

// Pricer simulates sequential swaps through a path against one consistent
// snapshot set. Pricing is pure computation and never suspends.
type Pricer struct {
	logger *zap.Logger
}

func NewPricer(logger *zap.Logger) *Pricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pricer{logger: logger}
}

// Price feeds amountIn through every hop of the path, each hop's output
// becoming the next hop's input. A hop with a zero reserve on the needed
// side yields zero output and the path prices as unprofitable, not invalid.
// Curve math that exceeds the representable range surfaces as
// ErrNumericOverflow for this path only.
func (p *Pricer) Price(path SwapPath, amountIn cosmath.Int, pools PoolSource) (result SwapPathResult, err error) {
	if len(path.Hops) == 0 {
		return SwapPathResult{}, fmt.Errorf("%w: path has no hops", ErrInvalidInput)
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("pricing overflow, path discarded",
				zap.String("path", path.ID()),
				zap.Any("panic", r))
			err = fmt.Errorf("%w: path %s", ErrNumericOverflow, path.ID())
		}
	}()

	current := amountIn
	hopAmounts := make([]HopAmount, 0, len(path.Hops))

	for _, hop := range path.Hops {
		pool, ok := pools.Pool(hop.PoolID)
		if !ok {
			return SwapPathResult{}, fmt.Errorf("%w: pool %s not in snapshot", ErrDataUnavailable, hop.PoolID)
		}

		out, qErr := pool.AmountOut(hop.TokenIn, current)
		if qErr != nil {
			return SwapPathResult{}, fmt.Errorf("quote hop %s on %s: %w", hop.PoolID, hop.Venue, qErr)
		}

		marginal, mErr := pool.MarginalAmountOut(hop.TokenIn, current)
		if mErr != nil {
			return SwapPathResult{}, fmt.Errorf("marginal quote hop %s on %s: %w", hop.PoolID, hop.Venue, mErr)
		}

		hopAmounts = append(hopAmounts, HopAmount{
			AmountIn:       current,
			AmountOut:      out,
			PriceImpactBps: impactBps(out, marginal),
		})
		current = out

		if current.IsZero() {
			// Drained hop: the remaining hops cannot produce output either.
			break
		}
	}

	// Pad untraversed hops with zero flow so the result always carries one
	// entry per hop.
	for len(hopAmounts) < len(path.Hops) {
		hopAmounts = append(hopAmounts, HopAmount{
			AmountIn:  cosmath.ZeroInt(),
			AmountOut: cosmath.ZeroInt(),
		})
	}

	finalOut := hopAmounts[len(hopAmounts)-1].AmountOut
	profit := finalOut.Sub(amountIn)

	var profitBps int64
	if !amountIn.IsZero() {
		profitBps = profit.MulRaw(10_000).Quo(amountIn).Int64()
	}

	return SwapPathResult{
		Path:       path,
		AmountIn:   amountIn,
		AmountOut:  finalOut,
		Profit:     profit,
		ProfitBps:  profitBps,
		HopAmounts: hopAmounts,
	}, nil
}

// impactBps measures |simulated − marginal| relative to the marginal output
// in basis points.
func impactBps(simulated, marginal cosmath.Int) int64 {
	if marginal.IsZero() {
		return 0
	}
	diff := marginal.Sub(simulated).Abs()
	return diff.MulRaw(10_000).Quo(marginal).Int64()
}
