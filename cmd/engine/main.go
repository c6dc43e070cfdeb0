package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meridianhft/meridian/params"
	"github.com/meridianhft/meridian/pkg/core"
	"github.com/meridianhft/meridian/pkg/core/engine"
	"github.com/meridianhft/meridian/pkg/core/orderbook"
	"github.com/meridianhft/meridian/pkg/queue"
	"github.com/meridianhft/meridian/pkg/stats"
	"github.com/meridianhft/meridian/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	var (
		logger *zap.Logger
		err    error
	)
	if cfg.LogFile != "" {
		logger, err = util.NewLoggerWithFile(cfg.LogFile, cfg.LogLevel)
	} else {
		logger, err = util.NewLogger(cfg.LogLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("engine_starting",
		"version", params.Version,
		"equity", cfg.Engine.Equity,
		"pool_size", cfg.Engine.PoolSize,
		"max_position_size", cfg.Risk.MaxPositionSize)

	eng, err := engine.New(engine.Options{
		Logger:        logger,
		Equity:        cfg.Engine.Equity,
		PoolSize:      cfg.Engine.PoolSize,
		TickQueueSize: cfg.Engine.TickQueueSize,
		Risk:          &cfg.Risk,
	})
	if err != nil {
		sugar.Fatalw("engine_init_failed", "err", err)
	}

	// Log every execution event
	eng.RegisterHandler(func(ev engine.Event) {
		sugar.Infow("execution_event",
			"type", ev.Type.String(),
			"order_id", ev.OrderID,
			"symbol", ev.Symbol.String(),
			"price", core.FromPriceMicro(ev.Price),
			"qty", core.FromQuantityNano(ev.Quantity),
			"code", ev.Code.String())
	})

	// Optional Prometheus endpoint
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			sugar.Infow("metrics_server_starting", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				sugar.Errorw("metrics_server_failed", "err", err)
			}
		}()
	}

	if os.Getenv("RUN_BENCH") == "true" {
		runBenchmarks(sugar.Infow)
	}

	runDemo(eng, sugar.Infow)
}

// runDemo drives a small scripted session: seed a book, trade against it,
// inspect the resulting position, then flatten.
func runDemo(eng *engine.Engine, logw func(string, ...interface{})) {
	doge := core.NewSymbol("DOGE/USDT")

	bids := make([]orderbook.Level, 5)
	asks := make([]orderbook.Level, 5)
	for i := 0; i < 5; i++ {
		bids[i] = orderbook.Level{
			Price:      core.ToPriceMicro(0.25 - float64(i)*0.001),
			Quantity:   core.ToQuantityNano(10_000),
			OrderCount: uint32(i + 1),
		}
		asks[i] = orderbook.Level{
			Price:      core.ToPriceMicro(0.251 + float64(i)*0.001),
			Quantity:   core.ToQuantityNano(10_000),
			OrderCount: uint32(i + 1),
		}
	}
	// First top-of-book arrives through the tick ring, as a feed handler
	// would deliver it; the full snapshot follows.
	eng.Ingest(core.MarketTick{
		Timestamp: core.NowNanos(),
		Symbol:    doge,
		Bid:       bids[0].Price,
		Ask:       asks[0].Price,
		BidSize:   bids[0].Quantity,
		AskSize:   asks[0].Quantity,
		Sequence:  1,
	})
	eng.DrainTicks()
	eng.UpdateOrderbook(doge, bids, asks, 2, core.NowNanos())

	book := eng.Book(doge)
	logw("book_seeded",
		"symbol", doge.String(),
		"mid", core.FromPriceMicro(book.MidPrice()),
		"spread_pct", book.SpreadPercent(),
		"imbalance", book.Imbalance(5),
		"ask_vwap", stats.VWAP(asks))

	if _, err := eng.SubmitOrder(engine.OrderRequest{
		Symbol:   doge,
		Side:     core.Buy,
		Type:     core.Market,
		Quantity: core.ToQuantityNano(5000),
	}); err != nil {
		logw("buy_failed", "err", err)
		return
	}
	if _, err := eng.SubmitOrder(engine.OrderRequest{
		Symbol:   doge,
		Side:     core.Sell,
		Type:     core.Market,
		Quantity: core.ToQuantityNano(3000),
	}); err != nil {
		logw("sell_failed", "err", err)
		return
	}

	if pos, ok := eng.Position(doge); ok {
		logw("position",
			"symbol", pos.Symbol.String(),
			"qty", core.FromQuantityNano(pos.Quantity),
			"entry", core.FromPriceMicro(pos.AvgEntryPrice),
			"realized_pnl", core.FromPriceMicro(pos.RealizedPnL),
			"unrealized_pnl", core.FromPriceMicro(pos.UnrealizedPnL(book.MidPrice())))
	}

	closed := eng.CloseAllPositions()
	logw("session_done",
		"positions_closed", closed,
		"open_orders", eng.OpenOrderCount(),
		"equity", core.FromPriceMicro(eng.Equity()))
}

// runBenchmarks reports rough single-machine throughput numbers for the hot
// primitives. Not a substitute for go test -bench; just a smoke signal.
func runBenchmarks(logw func(string, ...interface{})) {
	const n = 1_000_000

	q, _ := queue.NewSPSC[core.MarketTick](8192)
	tick := core.MarketTick{Symbol: core.NewSymbol("BENCH")}
	start := time.Now()
	for i := 0; i < n; i++ {
		q.Push(tick)
		q.Pop()
	}
	elapsed := time.Since(start)
	logw("bench_spsc",
		"ops", n,
		"ns_per_op", elapsed.Nanoseconds()/n,
		"ops_per_sec", int64(float64(n)/elapsed.Seconds()))

	book := orderbook.New(core.NewSymbol("BENCH"))
	levels := make([]orderbook.Level, orderbook.MaxLevels)
	for i := range levels {
		levels[i] = orderbook.Level{
			Price:      core.ToPriceMicro(100 + float64(i)),
			Quantity:   core.ToQuantityNano(5),
			OrderCount: 1,
		}
	}
	book.UpdateSnapshot(levels, levels, 1, 1)
	qty := core.ToQuantityNano(60)
	start = time.Now()
	for i := 0; i < n; i++ {
		book.EstimateExecutionPrice(core.Buy, qty)
	}
	elapsed = time.Since(start)
	logw("bench_estimate",
		"ops", n,
		"ns_per_op", elapsed.Nanoseconds()/n)
}
