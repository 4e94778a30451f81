package arb

import (
	"context"
	"sort"
	"sync"
	"time"

	cosmath "cosmossdk.io/math"
	"go.uber.org/zap"
	"solarb/pkg"
)

// PathState is the monitor's per-path lifecycle.
type PathState uint8

const (
	StateStale PathState = iota
	StateRepricing
	StateProfitable
	StateUnprofitable
)

func (s PathState) String() string {
	switch s {
	case StateRepricing:
		return "repricing"
	case StateProfitable:
		return "profitable"
	case StateUnprofitable:
		return "unprofitable"
	default:
		return "stale"
	}
}

// QuoteUpdate is the internal update schema both feed payload variants map
// to: one account's new raw state at a slot.
type QuoteUpdate struct {
	AccountID string
	Data      []byte
	Slot      uint64
	Received  time.Time
}

// VaultAccounts is implemented by pools whose reserves live in separate
// vault token accounts that the feed reports on.
type VaultAccounts interface {
	VaultAccounts() []string
}

// MonitorConfig holds the actionability thresholds.
type MonitorConfig struct {
	// MinProfit is the minimum absolute profit, in base token units, for a
	// path to classify as Profitable.
	MinProfit cosmath.Int
	// MaxImpactBps caps the aggregate price impact of a Profitable path.
	MaxImpactBps int64
	// Freshness is how long a priced path stays classified without a new
	// update before falling back to Stale.
	Freshness time.Duration
	// UpdateBuffer bounds the feed→monitor channel.
	UpdateBuffer int
}

// Opportunity is the copy external readers receive; the monitor never hands
// out its own mutable state.
type Opportunity struct {
	Strategy   string
	State      PathState
	Result     SwapPathResult
	Generation uint64
	UpdatedAt  time.Time
}

type pathEntry struct {
	selected  SwapPathSelected
	amountIn  cosmath.Int
	state     PathState
	result    SwapPathResult
	updatedAt time.Time
}

// Monitor re-prices a persisted selection against the live update stream and
// maintains a profit-ordered view of currently actionable paths. All path
// state is owned by the Run goroutine; reads go through copies.
type Monitor struct {
	cfg    MonitorConfig
	pricer *Pricer
	logger *zap.Logger

	updates chan QuoteUpdate

	mu           sync.RWMutex
	pools        map[string]pkg.Pool
	generation   uint64
	accountIndex map[string][]string // account -> pool IDs it belongs to
	entries      []*pathEntry
}

// NewMonitor builds a monitor over a selection and the pool snapshots its
// paths reference. amountIn is the simulation amount re-priced on every
// update.
func NewMonitor(cfg MonitorConfig, selected VecSwapPathSelected, pools []pkg.Pool, amountIn cosmath.Int, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = 1024
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 30 * time.Second
	}
	if cfg.MinProfit.IsNil() {
		cfg.MinProfit = cosmath.ZeroInt()
	}

	m := &Monitor{
		cfg:          cfg,
		pricer:       NewPricer(logger),
		logger:       logger.With(zap.String("component", "monitor")),
		updates:      make(chan QuoteUpdate, cfg.UpdateBuffer),
		pools:        make(map[string]pkg.Pool, len(pools)),
		accountIndex: make(map[string][]string),
	}

	for _, p := range pools {
		m.pools[p.GetID()] = p
		m.accountIndex[p.GetID()] = append(m.accountIndex[p.GetID()], p.GetID())
		if vp, ok := p.(VaultAccounts); ok {
			for _, account := range vp.VaultAccounts() {
				m.accountIndex[account] = append(m.accountIndex[account], p.GetID())
			}
		}
	}

	for _, sel := range selected.Value {
		m.entries = append(m.entries, &pathEntry{
			selected: sel,
			amountIn: sel.Result.AmountIn,
			state:    StateStale,
		})
	}
	if !amountIn.IsNil() && !amountIn.IsZero() {
		for _, e := range m.entries {
			e.amountIn = amountIn
		}
	}

	return m
}

// Push hands an update to the monitor without blocking the caller. A full
// buffer drops the update; the feed will deliver a fresher one.
func (m *Monitor) Push(u QuoteUpdate) bool {
	select {
	case m.updates <- u:
		return true
	default:
		m.logger.Warn("update buffer full, dropping quote update",
			zap.String("account", u.AccountID),
			zap.Uint64("slot", u.Slot))
		return false
	}
}

// Pool implements PoolSource over the monitor's current snapshots.
func (m *Monitor) Pool(id string) (pkg.Pool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	return p, ok
}

// Generation returns the snapshot generation counter, bumped on every
// applied update.
func (m *Monitor) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Run drives the monitor until the context ends. It prices every path once
// up front, then drains updates between pricing batches and sweeps for
// staleness on the freshness interval.
func (m *Monitor) Run(ctx context.Context) error {
	m.repriceAll()

	sweep := time.NewTicker(m.cfg.Freshness / 2)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-m.updates:
			m.applyUpdate(u)
		case <-sweep.C:
			m.sweepStale()
		}
	}
}

// applyUpdate replaces the affected pool snapshots and selectively re-prices
// only the paths routing through them.
func (m *Monitor) applyUpdate(u QuoteUpdate) {
	m.mu.Lock()
	poolIDs := m.accountIndex[u.AccountID]
	if len(poolIDs) == 0 {
		m.mu.Unlock()
		return
	}

	updated := make(map[string]bool, len(poolIDs))
	for _, id := range poolIDs {
		current, ok := m.pools[id]
		if !ok {
			continue
		}
		next, err := current.ApplyAccountData(u.AccountID, u.Data)
		if err != nil {
			m.logger.Warn("dropping update for pool",
				zap.String("pool", id),
				zap.String("account", u.AccountID),
				zap.Error(err))
			continue
		}
		m.pools[id] = next
		updated[id] = true
	}
	if len(updated) > 0 {
		m.generation++
	}
	m.mu.Unlock()

	if len(updated) == 0 {
		return
	}

	for _, e := range m.entries {
		affected := false
		for id := range updated {
			if e.selected.Result.Path.Touches(id) {
				affected = true
				break
			}
		}
		if affected {
			m.reprice(e)
		}
	}
}

func (m *Monitor) repriceAll() {
	for _, e := range m.entries {
		m.reprice(e)
	}
}

// reprice runs one path through the pricer against the current snapshots
// and classifies it.
func (m *Monitor) reprice(e *pathEntry) {
	m.mu.Lock()
	e.state = StateRepricing
	m.mu.Unlock()

	result, err := m.pricer.Price(e.selected.Result.Path, e.amountIn, m)

	m.mu.Lock()
	defer m.mu.Unlock()

	e.updatedAt = time.Now()
	if err != nil {
		m.logger.Warn("reprice failed",
			zap.String("strategy", e.selected.Strategy),
			zap.String("path", e.selected.Result.Path.ID()),
			zap.Error(err))
		e.state = StateUnprofitable
		return
	}

	e.result = result
	if result.Profit.GTE(m.cfg.MinProfit) && result.AggregateImpactBps() <= m.cfg.MaxImpactBps {
		e.state = StateProfitable
	} else {
		e.state = StateUnprofitable
	}
}

// sweepStale re-stales classified paths whose pricing has aged past the
// freshness window, even without an explicit update.
func (m *Monitor) sweepStale() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.cfg.Freshness)
	for _, e := range m.entries {
		if e.state != StateStale && e.updatedAt.Before(cutoff) {
			m.logger.Debug("path aged out, back to stale",
				zap.String("path", e.selected.Result.Path.ID()))
			e.state = StateStale
		}
	}
}

// Opportunities returns copies of the currently Profitable paths in profit
// order, best first.
func (m *Monitor) Opportunities() []Opportunity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Opportunity
	for _, e := range m.entries {
		if e.state != StateProfitable {
			continue
		}
		out = append(out, Opportunity{
			Strategy:   e.selected.Strategy,
			State:      e.state,
			Result:     e.result,
			Generation: m.generation,
			UpdatedAt:  e.updatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Profit.GT(out[j].Result.Profit)
	})
	return out
}

// Snapshot returns copies of every tracked path regardless of state, in
// tracking order.
func (m *Monitor) Snapshot() []Opportunity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Opportunity, 0, len(m.entries))
	for _, e := range m.entries {
		result := e.result
		if e.state == StateStale && result.AmountIn.IsNil() {
			result = e.selected.Result
		}
		out = append(out, Opportunity{
			Strategy:   e.selected.Strategy,
			State:      e.state,
			Result:     result,
			Generation: m.generation,
			UpdatedAt:  e.updatedAt,
		})
	}
	return out
}
