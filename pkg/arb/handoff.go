package arb

import (
	"context"
	"fmt"
	"time"

	cosmath "cosmossdk.io/math"
	"go.uber.org/zap"
)

// ExecutionMode selects between simulating and sending the transaction.
type ExecutionMode uint8

const (
	Simulate ExecutionMode = iota
	Send
)

func (m ExecutionMode) String() string {
	if m == Send {
		return "send"
	}
	return "simulate"
}

// ExecutionRequest is the validated unit handed to the transaction
// collaborator.
type ExecutionRequest struct {
	Strategy string
	Result   SwapPathResult
	AmountIn cosmath.Int
	Mode     ExecutionMode
}

// TransactionBuilder owns transaction assembly, signing and submission.
type TransactionBuilder interface {
	SubmitSwapPath(ctx context.Context, req ExecutionRequest) (string, error)
}

// HandoffConfig holds the revalidation thresholds applied at the instant of
// handoff.
type HandoffConfig struct {
	MinProfit    cosmath.Int
	MaxImpactBps int64
	// MaxAge rejects opportunities whose classification is older than this.
	MaxAge time.Duration
}

// Handoff revalidates a Profitable opportunity and forwards it for
// transaction construction. Classification and handoff are not atomic, so
// the re-check is mandatory; rejections are reported, never retried.
type Handoff struct {
	cfg     HandoffConfig
	builder TransactionBuilder
	pricer  *Pricer
	logger  *zap.Logger
}

func NewHandoff(cfg HandoffConfig, builder TransactionBuilder, logger *zap.Logger) *Handoff {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinProfit.IsNil() {
		cfg.MinProfit = cosmath.ZeroInt()
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Second
	}
	return &Handoff{
		cfg:     cfg,
		builder: builder,
		pricer:  NewPricer(logger),
		logger:  logger.With(zap.String("component", "handoff")),
	}
}

// Execute re-validates the opportunity against the current snapshots and, if
// it still clears the thresholds, forwards it. The returned string is the
// collaborator's submission identity (signature or simulation id).
func (h *Handoff) Execute(ctx context.Context, opp Opportunity, pools PoolSource, mode ExecutionMode) (string, error) {
	if opp.State != StateProfitable {
		return "", fmt.Errorf("opportunity %s is %s, not profitable", opp.Result.Path.ID(), opp.State)
	}
	if age := time.Since(opp.UpdatedAt); age > h.cfg.MaxAge {
		return "", fmt.Errorf("opportunity %s aged %s past the %s handoff window", opp.Result.Path.ID(), age, h.cfg.MaxAge)
	}

	// Prices may have moved since classification; re-price at this instant.
	revalidated, err := h.pricer.Price(opp.Result.Path, opp.Result.AmountIn, pools)
	if err != nil {
		return "", fmt.Errorf("revalidate %s: %w", opp.Result.Path.ID(), err)
	}

	if revalidated.Profit.LT(h.cfg.MinProfit) {
		h.logger.Info("handoff rejected: profit below threshold",
			zap.String("path", opp.Result.Path.ID()),
			zap.String("profit", revalidated.Profit.String()),
			zap.String("min_profit", h.cfg.MinProfit.String()))
		return "", fmt.Errorf("profit %s below threshold %s", revalidated.Profit, h.cfg.MinProfit)
	}
	if impact := revalidated.AggregateImpactBps(); impact > h.cfg.MaxImpactBps {
		h.logger.Info("handoff rejected: impact above cap",
			zap.String("path", opp.Result.Path.ID()),
			zap.Int64("impact_bps", impact),
			zap.Int64("max_impact_bps", h.cfg.MaxImpactBps))
		return "", fmt.Errorf("price impact %d bps above cap %d bps", impact, h.cfg.MaxImpactBps)
	}

	req := ExecutionRequest{
		Strategy: opp.Strategy,
		Result:   revalidated,
		AmountIn: revalidated.AmountIn,
		Mode:     mode,
	}

	id, err := h.builder.SubmitSwapPath(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", opp.Result.Path.ID(), err)
	}

	h.logger.Info("opportunity handed off",
		zap.String("strategy", opp.Strategy),
		zap.String("path", opp.Result.Path.ID()),
		zap.String("mode", mode.String()),
		zap.String("submission", id))

	return id, nil
}

// ReplayFromFile loads a persisted selection and hands its best entry off,
// running it through the same revalidation as a live opportunity. The file's
// order is the selector's profit order, so the first entry is the best.
func (h *Handoff) ReplayFromFile(ctx context.Context, files FileSource, path string, pools PoolSource, mode ExecutionMode) (string, error) {
	vec, err := files.ReadVec(path)
	if err != nil {
		return "", fmt.Errorf("%w: read strategy file %s: %v", ErrPersistence, path, err)
	}
	if len(vec.Value) == 0 {
		return "", fmt.Errorf("%w: strategy file %s holds no paths", ErrDataUnavailable, path)
	}

	best := vec.Value[0]
	opp := Opportunity{
		Strategy:  best.Strategy,
		State:     StateProfitable,
		Result:    best.Result,
		UpdatedAt: time.Now(),
	}
	return h.Execute(ctx, opp, pools, mode)
}
