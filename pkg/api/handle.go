// Package api wraps the execution engine in a flat, float-valued facade for
// embedders: strategy runtimes, FFI layers and scripting hosts that want
// plain numbers instead of the core's fixed-point types. Every method is
// safe to call on a nil or closed handle and degrades to a zero-valued
// no-op, so a missing initialization can never crash the host.
package api

import (
	"sync/atomic"

	"github.com/meridianhft/meridian/pkg/core"
	"github.com/meridianhft/meridian/pkg/core/engine"
	"github.com/meridianhft/meridian/pkg/core/orderbook"
)

// Handle is an opaque reference to one engine instance.
type Handle struct {
	eng *engine.Engine
	seq atomic.Uint64
}

// Open constructs an engine and returns its handle.
func Open(opts engine.Options) (*Handle, error) {
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	return &Handle{eng: eng}, nil
}

// Close detaches the handle from its engine. Subsequent calls no-op.
// Idempotent.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	h.eng = nil
}

func (h *Handle) alive() bool {
	return h != nil && h.eng != nil
}

// UpdateOrderbook replaces the book for a symbol from parallel price and
// size slices. Sides are clamped to the shorter of their two slices; bids
// must arrive descending and asks ascending. The handle stamps a monotonic
// sequence of its own since flat-boundary callers carry none.
func (h *Handle) UpdateOrderbook(symbol string, bidPrices, bidSizes, askPrices, askSizes []float64) {
	if !h.alive() {
		return
	}
	bids := buildLevels(bidPrices, bidSizes)
	asks := buildLevels(askPrices, askSizes)
	h.eng.UpdateOrderbook(core.NewSymbol(symbol), bids, asks, h.seq.Add(1), core.NowNanos())
}

func buildLevels(prices, sizes []float64) []orderbook.Level {
	n := len(prices)
	if len(sizes) < n {
		n = len(sizes)
	}
	levels := make([]orderbook.Level, n)
	for i := 0; i < n; i++ {
		levels[i] = orderbook.Level{
			Price:      core.ToPriceMicro(prices[i]),
			Quantity:   core.ToQuantityNano(sizes[i]),
			OrderCount: 1,
		}
	}
	return levels
}

// MidPrice returns the symbol's mid price, or 0 without a two-sided book.
func (h *Handle) MidPrice(symbol string) float64 {
	if !h.alive() {
		return 0
	}
	book := h.eng.Book(core.NewSymbol(symbol))
	if book == nil {
		return 0
	}
	return core.FromPriceMicro(book.MidPrice())
}

// SpreadPercent returns the spread as a percentage of mid.
func (h *Handle) SpreadPercent(symbol string) float64 {
	if !h.alive() {
		return 0
	}
	book := h.eng.Book(core.NewSymbol(symbol))
	if book == nil {
		return 0
	}
	return book.SpreadPercent()
}

// Imbalance returns the depth imbalance over the given number of levels.
func (h *Handle) Imbalance(symbol string, levels int) float64 {
	if !h.alive() {
		return 0
	}
	book := h.eng.Book(core.NewSymbol(symbol))
	if book == nil {
		return 0
	}
	return book.Imbalance(levels)
}

// SubmitOrder submits an order and returns its id, or 0 on rejection.
// side: 0 buy, 1 sell. orderType: 0 market, 1 limit, 2 stop-market,
// 3 stop-limit, 4 trailing-stop. price 0 means "at market estimate".
func (h *Handle) SubmitOrder(symbol string, side, orderType int, qty, price float64) uint64 {
	if !h.alive() {
		return 0
	}
	id, err := h.eng.SubmitOrder(engine.OrderRequest{
		Symbol:   core.NewSymbol(symbol),
		Side:     core.Side(side),
		Type:     core.OrderType(orderType),
		Quantity: core.ToQuantityNano(qty),
		Price:    core.ToPriceMicro(price),
	})
	if err != nil {
		return 0
	}
	return id
}

// CancelOrder cancels a resting order by id.
func (h *Handle) CancelOrder(id uint64) bool {
	if !h.alive() {
		return false
	}
	return h.eng.CancelOrder(id)
}

// CancelAllOrders cancels every resting order on the symbol.
func (h *Handle) CancelAllOrders(symbol string) int {
	if !h.alive() {
		return 0
	}
	return h.eng.CancelAllOrders(core.NewSymbol(symbol))
}

// ClosePosition flattens the symbol's position at market.
func (h *Handle) ClosePosition(symbol string) bool {
	if !h.alive() {
		return false
	}
	return h.eng.ClosePosition(core.NewSymbol(symbol))
}

// CloseAllPositions flattens every open position.
func (h *Handle) CloseAllPositions() int {
	if !h.alive() {
		return 0
	}
	return h.eng.CloseAllPositions()
}

// Position returns the signed quantity, average entry price and realized
// PnL for the symbol. ok is false when no position is open.
func (h *Handle) Position(symbol string) (qty, entry, pnl float64, ok bool) {
	if !h.alive() {
		return 0, 0, 0, false
	}
	pos, ok := h.eng.Position(core.NewSymbol(symbol))
	if !ok {
		return 0, 0, 0, false
	}
	return core.FromQuantityNano(pos.Quantity),
		core.FromPriceMicro(pos.AvgEntryPrice),
		core.FromPriceMicro(pos.RealizedPnL),
		true
}

// Equity returns account equity in USD.
func (h *Handle) Equity() float64 {
	if !h.alive() {
		return 0
	}
	return core.FromPriceMicro(h.eng.Equity())
}

// SetEquity replaces account equity.
func (h *Handle) SetEquity(equity float64) {
	if !h.alive() {
		return
	}
	h.eng.SetEquity(core.ToPriceMicro(equity))
}

// OpenOrderCount returns the number of resting orders.
func (h *Handle) OpenOrderCount() int {
	if !h.alive() {
		return 0
	}
	return h.eng.OpenOrderCount()
}

// PositionCount returns the number of open positions.
func (h *Handle) PositionCount() int {
	if !h.alive() {
		return 0
	}
	return h.eng.PositionCount()
}

// RegisterHandler forwards execution events to the callback.
func (h *Handle) RegisterHandler(fn engine.Handler) {
	if !h.alive() || fn == nil {
		return
	}
	h.eng.RegisterHandler(fn)
}

// Engine exposes the underlying engine for callers that outgrow the flat
// facade. Returns nil on a closed handle.
func (h *Handle) Engine() *engine.Engine {
	if !h.alive() {
		return nil
	}
	return h.eng
}
