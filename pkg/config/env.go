package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process-level settings resolved from the environment.
// Session configuration (token sets, hop flags) is supplied separately as
// code-level InputVec records.
type Config struct {
	RPCEndpoints      []string
	WSEndpoint        string
	JitoRPC           string
	FeedURL           string
	MongoURI          string
	MongoCollection   string
	KeypairPath       string
	StrategyDir       string
	ReqLimitPerSecond int
	SimulationAmount  uint64
	UseJito           bool
}

const (
	defaultStrategyDir      = "best_paths_selected"
	defaultMongoCollection  = "ultra_strategies"
	defaultReqLimit         = 10
	defaultSimulationAmount = 3_500_000_000 // 3.5 SOL in lamports
)

// Load reads .env (when present) and resolves the typed configuration.
// RPC_ENDPOINTS is the only required variable.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// Missing file is fine; the environment may already be populated.
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		RPCEndpoints:      splitList(os.Getenv("RPC_ENDPOINTS")),
		WSEndpoint:        os.Getenv("WS_ENDPOINT"),
		JitoRPC:           os.Getenv("JITO_RPC"),
		FeedURL:           os.Getenv("FEED_URL"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoCollection:   envOr("MONGO_COLLECTION", defaultMongoCollection),
		KeypairPath:       os.Getenv("KEYPAIR_PATH"),
		StrategyDir:       envOr("STRATEGY_DIR", defaultStrategyDir),
		ReqLimitPerSecond: defaultReqLimit,
		SimulationAmount:  defaultSimulationAmount,
		UseJito:           os.Getenv("USE_JITO") == "true",
	}

	if len(cfg.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("RPC_ENDPOINTS is required")
	}

	if v := os.Getenv("REQ_LIMIT_PER_SECOND"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQ_LIMIT_PER_SECOND %q: %w", v, err)
		}
		cfg.ReqLimitPerSecond = limit
	}

	if v := os.Getenv("SIMULATION_AMOUNT"); v != "" {
		amount, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SIMULATION_AMOUNT %q: %w", v, err)
		}
		cfg.SimulationAmount = amount
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
