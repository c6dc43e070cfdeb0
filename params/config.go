package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/meridianhft/meridian/pkg/core"
)

const Version = "0.3.0"

type Engine struct {
	// Equity is the starting account equity in USD.
	Equity float64
	// PoolSize is the order pool slot count. Must be a power of two.
	PoolSize uint32
	// TickQueueSize is the market tick ring capacity. Must be a power of two.
	TickQueueSize uint64
}

type Config struct {
	LogLevel string
	// LogFile, when set, mirrors the log stream to this path.
	LogFile string
	Engine  Engine
	Risk    core.RiskParams
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Engine: Engine{
			Equity:        1_000_000,
			PoolSize:      16_384,
			TickQueueSize: 8_192,
		},
		Risk: core.DefaultRiskParams(),
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if lf := os.Getenv("LOG_FILE"); lf != "" {
		cfg.LogFile = lf
	}

	if eq := os.Getenv("ENGINE_EQUITY"); eq != "" {
		if v, err := strconv.ParseFloat(eq, 64); err == nil && v > 0 {
			cfg.Engine.Equity = v
		}
	}
	if ps := os.Getenv("ENGINE_POOL_SIZE"); ps != "" {
		if v, err := strconv.ParseUint(ps, 10, 32); err == nil && v > 0 {
			cfg.Engine.PoolSize = uint32(v)
		}
	}
	if tq := os.Getenv("ENGINE_TICK_QUEUE_SIZE"); tq != "" {
		if v, err := strconv.ParseUint(tq, 10, 64); err == nil && v > 0 {
			cfg.Engine.TickQueueSize = v
		}
	}

	if mp := os.Getenv("RISK_MAX_POSITION_SIZE"); mp != "" {
		if v, err := strconv.ParseFloat(mp, 64); err == nil && v > 0 {
			cfg.Risk.MaxPositionSize = v
		}
	}
	if dd := os.Getenv("RISK_MAX_DRAWDOWN"); dd != "" {
		if v, err := strconv.ParseFloat(dd, 64); err == nil && v > 0 {
			cfg.Risk.MaxDrawdown = v
		}
	}
	if sl := os.Getenv("RISK_STOP_LOSS_PCT"); sl != "" {
		if v, err := strconv.ParseFloat(sl, 64); err == nil && v > 0 {
			cfg.Risk.StopLossPercent = v
		}
	}
	if tp := os.Getenv("RISK_TAKE_PROFIT_PCT"); tp != "" {
		if v, err := strconv.ParseFloat(tp, 64); err == nil && v > 0 {
			cfg.Risk.TakeProfitPercent = v
		}
	}
	if mo := os.Getenv("RISK_MAX_OPEN_ORDERS"); mo != "" {
		if v, err := strconv.Atoi(mo); err == nil && v > 0 {
			cfg.Risk.MaxOpenOrders = v
		}
	}
	if mt := os.Getenv("RISK_MAX_DAILY_TRADES"); mt != "" {
		if v, err := strconv.Atoi(mt); err == nil && v > 0 {
			cfg.Risk.MaxDailyTrades = v
		}
	}

	return cfg
}
