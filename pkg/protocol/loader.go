package protocol

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solarb/pkg"
)

// Pair is an unordered token pair to scan pools for.
type Pair struct {
	BaseMint  string
	QuoteMint string
}

// Loader fetches pools across registered venue protocols and keeps the last
// successful fetch as a cached snapshot. Callers that decline a fresh fetch
// get the cached set back unchanged.
type Loader struct {
	protocols []pkg.Protocol
	logger    *zap.Logger

	mu       sync.RWMutex
	cached   []pkg.Pool
	cachedAt time.Time
}

func NewLoader(protocols []pkg.Protocol, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{protocols: protocols, logger: logger}
}

// LoadPools returns pool snapshots for the given pairs. When fresh is false
// and a previous fetch succeeded, the cached snapshot is returned without any
// network traffic. A venue that fails for one pair is skipped and logged;
// the remaining venues still contribute.
func (l *Loader) LoadPools(ctx context.Context, pairs []Pair, fresh bool) ([]pkg.Pool, error) {
	if !fresh {
		l.mu.RLock()
		cached := l.cached
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
	}

	seen := make(map[string]struct{})
	pools := make([]pkg.Pool, 0)
	for _, pair := range pairs {
		for _, proto := range l.protocols {
			fetched, err := proto.FetchPoolsByPair(ctx, pair.BaseMint, pair.QuoteMint)
			if err != nil {
				l.logger.Warn("pool fetch failed",
					zap.String("venue", string(proto.ProtocolName())),
					zap.String("base", pair.BaseMint),
					zap.String("quote", pair.QuoteMint),
					zap.Error(err))
				continue
			}
			for _, pool := range fetched {
				if _, dup := seen[pool.GetID()]; dup {
					continue
				}
				seen[pool.GetID()] = struct{}{}
				pools = append(pools, pool)
			}
		}
	}

	l.mu.Lock()
	l.cached = pools
	l.cachedAt = time.Now()
	l.mu.Unlock()

	l.logger.Info("pools loaded",
		zap.Int("count", len(pools)),
		zap.Int("pairs", len(pairs)),
		zap.Bool("fresh", fresh))
	return pools, nil
}

// CachedAt reports when the cached snapshot was taken; zero when no fetch
// has completed yet.
func (l *Loader) CachedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cachedAt
}
