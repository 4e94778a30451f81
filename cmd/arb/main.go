package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cosmath "cosmossdk.io/math"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solarb/pkg"
	"solarb/pkg/arb"
	"solarb/pkg/config"
	"solarb/pkg/feed"
	"solarb/pkg/market"
	"solarb/pkg/protocol"
	"solarb/pkg/sol"
	"solarb/pkg/storage"
	"solarb/pkg/transactions"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var (
	envFile     = flag.String("env", ".env", "Path to .env file")
	sessionFile = flag.String("session", "", "JSON file with the session's configuration records")
	replayFile  = flag.String("replay", "", "Replay a persisted strategy file instead of discovering")
	sendMode    = flag.Bool("send", false, "Send transactions on-chain instead of simulating")
	monitorFor  = flag.Duration("monitor", 0, "How long to monitor the selection against the live feed (0 disables)")
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("session failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	rpcPool, err := sol.NewRPCPool(ctx, cfg.RPCEndpoints, cfg.JitoRPC, cfg.ReqLimitPerSecond)
	if err != nil {
		return err
	}
	client := rpcPool.GetClient()

	session, err := loadSession(*sessionFile)
	if err != nil {
		return err
	}

	protocols := []pkg.Protocol{
		protocol.NewSplTokenSwap(client),
		protocol.NewSaber(client),
		protocol.NewWhirlpool(client),
	}
	loader := protocol.NewLoader(protocols, logger)

	pools, err := loader.LoadPools(ctx, sessionPairs(session), anyFreshRequested(session))
	if err != nil {
		return err
	}
	graph := market.Build(pools)
	logger.Info("market graph built",
		zap.Int("pools", graph.PoolCount()),
		zap.Int("tokens", len(graph.Tokens())))

	infos, err := sol.GetTokensInfos(ctx, client, sessionTokens(session))
	if err != nil {
		return err
	}

	fileStore := storage.NewFileStore(cfg.StrategyDir)

	var docs arb.DocumentSink
	var mongoStore *storage.MongoStore
	if cfg.MongoURI != "" {
		mongoStore, err = storage.NewMongoStore(ctx, cfg.MongoURI, "arbitrage", logger)
		if err != nil {
			return err
		}
		defer mongoStore.Close(context.Background())
		docs = mongoStore
	}

	bridging := []string{wsolMint, usdcMint}
	selector := arb.NewSelector(fileStore, docs, cfg.MongoCollection, logger)
	simulationAmount := cosmath.NewIntFromUint64(cfg.SimulationAmount)

	if *replayFile != "" {
		return replay(ctx, cfg, client, fileStore, pools, logger)
	}

	strategy := arb.NewStrategy(graph, selector, simulationAmount, bridging, bridging, logger)

	// Configuration runs are independent: a failed run is reported and the
	// session continues with the remaining outcomes.
	var (
		mu    sync.Mutex
		names []string
		vecs  []arb.VecSwapPathSelected
	)
	var g errgroup.Group
	for _, iv := range session {
		iv := iv
		g.Go(func() error {
			vec, path, err := strategy.Run(ctx, iv, infos)
			if err != nil {
				logger.Error("configuration run failed",
					zap.String("strategy", iv.StrategyName()),
					zap.Error(err))
				return nil
			}
			logger.Info("configuration run complete",
				zap.String("strategy", iv.StrategyName()),
				zap.String("file", path),
				zap.Int("selected", len(vec.Value)))
			mu.Lock()
			names = append(names, iv.StrategyName())
			vecs = append(vecs, vec)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if len(vecs) == 0 {
		return fmt.Errorf("no configuration run produced a selection")
	}

	watched := vecs[0]
	if len(vecs) > 1 {
		aggregator := arb.NewAggregator(fileStore, docs, cfg.MongoCollection, logger)
		merged, path, err := aggregator.Merge(ctx, names, vecs)
		if err != nil {
			logger.Error("aggregation failed", zap.Error(err))
		} else {
			logger.Info("merged strategy written", zap.String("file", path))
			watched = merged
		}
	}

	if *monitorFor <= 0 || cfg.FeedURL == "" {
		return nil
	}
	return monitorAndExecute(ctx, cfg, client, watched, pools, simulationAmount, logger)
}

// monitorAndExecute re-prices the watched selection against the live feed and
// hands qualifying opportunities to the transaction collaborator.
func monitorAndExecute(ctx context.Context, cfg *config.Config, client *sol.Client, watched arb.VecSwapPathSelected, pools []pkg.Pool, amount cosmath.Int, logger *zap.Logger) error {
	monitor := arb.NewMonitor(arb.MonitorConfig{
		MinProfit:    cosmath.ZeroInt(),
		MaxImpactBps: 500,
	}, watched, pools, amount, logger)

	ingestor := feed.NewIngestor(cfg.FeedURL, watchedAccounts(pools), monitor, logger)

	var handoff *arb.Handoff
	if cfg.KeypairPath != "" {
		signer, err := transactions.LoadSigner(cfg.KeypairPath)
		if err != nil {
			return err
		}
		builder := transactions.NewBuilder(client, signer, monitor, cfg.UseJito, logger)
		handoff = arb.NewHandoff(arb.HandoffConfig{
			MinProfit:    cosmath.ZeroInt(),
			MaxImpactBps: 500,
		}, builder, logger)
	}

	runCtx, cancel := context.WithTimeout(ctx, *monitorFor)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return ingestor.Run(gctx) })
	g.Go(func() error {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				opps := monitor.Opportunities()
				if len(opps) == 0 {
					continue
				}
				logger.Info("actionable opportunities", zap.Int("count", len(opps)))
				if handoff == nil {
					continue
				}
				id, err := handoff.Execute(gctx, opps[0], monitor, executionMode())
				if err != nil {
					logger.Warn("handoff rejected", zap.Error(err))
					continue
				}
				logger.Info("opportunity executed", zap.String("submission", id))
			}
		}
	})

	err := g.Wait()
	if err == context.DeadlineExceeded || runCtx.Err() == context.DeadlineExceeded {
		return nil
	}
	return err
}

// replay hands the best entry of a persisted strategy file to the transaction
// collaborator after fresh revalidation.
func replay(ctx context.Context, cfg *config.Config, client *sol.Client, files *storage.FileStore, pools []pkg.Pool, logger *zap.Logger) error {
	if cfg.KeypairPath == "" {
		return fmt.Errorf("KEYPAIR_PATH is required for replay")
	}
	signer, err := transactions.LoadSigner(cfg.KeypairPath)
	if err != nil {
		return err
	}

	source := staticPools{}
	for _, p := range pools {
		source[p.GetID()] = p
	}

	builder := transactions.NewBuilder(client, signer, source, cfg.UseJito, logger)
	handoff := arb.NewHandoff(arb.HandoffConfig{
		MinProfit:    cosmath.ZeroInt(),
		MaxImpactBps: 500,
	}, builder, logger)

	id, err := handoff.ReplayFromFile(ctx, files, *replayFile, source, executionMode())
	if err != nil {
		return err
	}
	logger.Info("replay executed", zap.String("submission", id))
	return nil
}

// staticPools is a fixed PoolSource over one loaded snapshot set.
type staticPools map[string]pkg.Pool

func (s staticPools) Pool(id string) (pkg.Pool, bool) {
	p, ok := s[id]
	return p, ok
}

func executionMode() arb.ExecutionMode {
	if *sendMode {
		return arb.Send
	}
	return arb.Simulate
}

// loadSession reads the ordered configuration records, falling back to a
// single SOL/USDC configuration when no session file is given.
func loadSession(path string) ([]arb.InputVec, error) {
	if path == "" {
		return []arb.InputVec{{
			TokensToArb: []arb.TokenInArb{
				{Address: wsolMint, Symbol: "SOL"},
				{Address: usdcMint, Symbol: "USDC"},
			},
			Include1Hop:        true,
			Include2Hop:        true,
			NumbersOfBestPaths: 5,
			GetFreshPools:      true,
		}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file %s: %w", path, err)
	}
	var session []arb.InputVec
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	if len(session) == 0 {
		return nil, fmt.Errorf("session file %s holds no configurations", path)
	}
	return session, nil
}

// sessionPairs derives the pool-scan pair list: every base/target pair of
// every configuration, plus bridging pairs for 2-hop routes.
func sessionPairs(session []arb.InputVec) []protocol.Pair {
	seen := make(map[string]struct{})
	var pairs []protocol.Pair
	add := func(a, b string) {
		if a == b {
			return
		}
		key := a + "/" + b
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		pairs = append(pairs, protocol.Pair{BaseMint: a, QuoteMint: b})
	}

	for _, iv := range session {
		if len(iv.TokensToArb) < 2 {
			continue
		}
		base := iv.BaseToken().Address
		for _, t := range iv.TokensToArb[1:] {
			add(base, t.Address)
			if iv.Include2Hop {
				add(wsolMint, t.Address)
				add(usdcMint, t.Address)
			}
		}
	}
	return pairs
}

func sessionTokens(session []arb.InputVec) []arb.TokenInArb {
	seen := make(map[string]struct{})
	var tokens []arb.TokenInArb
	for _, iv := range session {
		for _, t := range iv.TokensToArb {
			if _, dup := seen[t.Address]; dup {
				continue
			}
			seen[t.Address] = struct{}{}
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func anyFreshRequested(session []arb.InputVec) bool {
	for _, iv := range session {
		if iv.GetFreshPools {
			return true
		}
	}
	return false
}

// watchedAccounts lists every account the feed should push updates for: pool
// accounts plus reserve vaults.
func watchedAccounts(pools []pkg.Pool) []string {
	var accounts []string
	for _, p := range pools {
		accounts = append(accounts, p.GetID())
		if vp, ok := p.(arb.VaultAccounts); ok {
			accounts = append(accounts, vp.VaultAccounts()...)
		}
	}
	return accounts
}
