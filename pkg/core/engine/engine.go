// Package engine implements the order execution core: order lifecycle,
// pre-trade risk gates, position accounting and synchronous event fan-out.
//
// The engine is an explicit handle. Callers construct as many independent
// engines as they need; there is no process-wide instance.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/meridianhft/meridian/pkg/core"
	"github.com/meridianhft/meridian/pkg/core/orderbook"
	"github.com/meridianhft/meridian/pkg/mem"
	"github.com/meridianhft/meridian/pkg/metrics"
	"github.com/meridianhft/meridian/pkg/queue"
	"github.com/meridianhft/meridian/pkg/util"
)

var (
	ErrInvalidSymbol   = errors.New("engine: empty symbol")
	ErrInvalidQuantity = errors.New("engine: quantity must be positive")
	ErrInvalidPrice    = errors.New("engine: limit price must be positive")
	ErrRiskLimit       = errors.New("engine: risk limit exceeded")
	ErrPoolExhausted   = errors.New("engine: order pool exhausted")
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultEquity        = 1_000_000.0
	DefaultPoolSize      = 16_384
	DefaultTickQueueSize = 8_192
)

// Options configures a new engine. The zero value is usable: every field
// falls back to a default.
type Options struct {
	Logger        *zap.Logger
	Clock         util.Clock
	Equity        float64          // starting equity in USD
	PoolSize      uint32           // order pool slots, power of two
	TickQueueSize uint64           // ingestion ring capacity, power of two
	Risk          *core.RiskParams // nil means DefaultRiskParams
}

// Engine is the execution core for one account.
//
// A single mutex guards the order table, positions and books; the hot
// lookups (equity, id counter) are atomics outside it. Events fire inline
// on the calling goroutine while the lock is held, so handlers must return
// quickly and must not call back into the engine.
type Engine struct {
	log   *zap.Logger
	clock util.Clock
	risk  core.RiskParams

	nextID atomic.Uint64
	equity atomic.Int64 // micro-units

	pool  *mem.Pool[core.Order]
	ticks *queue.SPSC[core.MarketTick]

	mu        sync.Mutex
	orders    map[core.OrderID]mem.Ref
	positions map[core.Symbol]*core.Position
	books     map[core.Symbol]*orderbook.Book
	handlers  []Handler
}

// New constructs an engine from the given options.
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	if opts.Equity == 0 {
		opts.Equity = DefaultEquity
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.TickQueueSize == 0 {
		opts.TickQueueSize = DefaultTickQueueSize
	}
	risk := core.DefaultRiskParams()
	if opts.Risk != nil {
		risk = *opts.Risk
	}

	pool, err := mem.NewPool[core.Order](opts.PoolSize)
	if err != nil {
		return nil, err
	}
	ticks, err := queue.NewSPSC[core.MarketTick](opts.TickQueueSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:       opts.Logger,
		clock:     opts.Clock,
		risk:      risk,
		pool:      pool,
		ticks:     ticks,
		orders:    make(map[core.OrderID]mem.Ref),
		positions: make(map[core.Symbol]*core.Position),
		books:     make(map[core.Symbol]*orderbook.Book),
	}
	e.equity.Store(core.ToPriceMicro(opts.Equity))
	return e, nil
}

// RegisterHandler adds an event handler. Handlers run synchronously in
// registration order on the goroutine that triggered the event.
func (e *Engine) RegisterHandler(h Handler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, h)
	e.mu.Unlock()
}

// OrderRequest carries the parameters of a submission. Zero values give the
// defaults: GTC time in force, no stop price, price 0 meaning "at market
// estimate" for market orders.
type OrderRequest struct {
	Symbol    core.Symbol
	Side      core.Side
	Type      core.OrderType
	Quantity  core.QuantityNano
	Price     core.PriceMicro
	StopPrice core.PriceMicro
	TIF       core.TimeInForce
}

// SubmitOrder runs the risk gates and, on acceptance, records the order and
// returns its id. Market orders fill immediately against the book estimate
// (or at the explicit price when one is given); other types rest as OPEN.
// On rejection the id is 0, the error names the gate that failed, and an
// OrderRejected event carries the matching code.
func (e *Engine) SubmitOrder(req OrderRequest) (core.OrderID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Symbol.IsZero() {
		e.reject(req.Symbol, req.Quantity, core.InvalidSymbol, "empty symbol")
		return 0, ErrInvalidSymbol
	}
	if req.Quantity <= 0 {
		e.reject(req.Symbol, req.Quantity, core.InvalidQuantity, "quantity must be positive")
		return 0, ErrInvalidQuantity
	}
	if req.Type != core.Market && req.Price <= 0 {
		e.reject(req.Symbol, req.Quantity, core.InvalidPrice, "price must be positive")
		return 0, ErrInvalidPrice
	}

	if !e.checkPositionRisk(req.Symbol, req.Side, req.Quantity) {
		e.reject(req.Symbol, req.Quantity, core.RiskLimitExceeded, "position size limit exceeded")
		return 0, ErrRiskLimit
	}
	if len(e.orders) >= e.risk.MaxOpenOrders {
		e.reject(req.Symbol, req.Quantity, core.RiskLimitExceeded, "max open orders exceeded")
		return 0, ErrRiskLimit
	}

	ref, order, ok := e.pool.Alloc()
	if !ok {
		e.reject(req.Symbol, req.Quantity, core.InternalError, "order pool exhausted")
		return 0, ErrPoolExhausted
	}

	id := e.nextID.Add(1)
	now := e.now()
	*order = core.Order{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Symbol:    req.Symbol,
		Price:     req.Price,
		StopPrice: req.StopPrice,
		Quantity:  req.Quantity,
		Side:      req.Side,
		Type:      req.Type,
		TIF:       req.TIF,
		Status:    core.Pending,
	}
	e.orders[id] = ref

	metrics.OrdersSubmitted.WithLabelValues(req.Side.String()).Inc()
	metrics.OpenOrders.Set(float64(len(e.orders)))
	e.emit(Event{
		Type: OrderSubmitted, OrderID: id, Symbol: req.Symbol,
		Price: req.Price, Quantity: req.Quantity, Timestamp: now,
		Message: "order submitted",
	})

	if req.Type == core.Market {
		fillPrice := req.Price
		if fillPrice == 0 {
			fillPrice = e.executionPrice(req.Symbol, req.Side, req.Quantity)
		}
		e.fill(ref, order, fillPrice)
	} else {
		order.Status = core.Open
		order.UpdatedAt = e.now()
		e.emit(Event{
			Type: OrderAccepted, OrderID: id, Symbol: req.Symbol,
			Price: req.Price, Quantity: req.Quantity, Timestamp: order.UpdatedAt,
			Message: "order accepted",
		})
	}

	e.log.Debug("order submitted",
		zap.Uint64("id", id),
		zap.String("symbol", req.Symbol.String()),
		zap.String("side", req.Side.String()),
		zap.String("type", req.Type.String()))
	return id, nil
}

// CancelOrder cancels a resting order. Returns false when the id is unknown
// or the order is no longer active.
func (e *Engine) CancelOrder(id core.OrderID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(id)
}

func (e *Engine) cancelLocked(id core.OrderID) bool {
	ref, ok := e.orders[id]
	if !ok {
		return false
	}
	order, ok := e.pool.Get(ref)
	if !ok || !order.IsActive() {
		return false
	}

	order.Status = core.Cancelled
	order.UpdatedAt = e.now()

	e.emit(Event{
		Type: OrderCancelled, OrderID: id, Symbol: order.Symbol,
		Price: order.Price, Quantity: order.Remaining(),
		Timestamp: order.UpdatedAt, Message: "order cancelled",
	})

	delete(e.orders, id)
	if err := e.pool.Free(ref); err != nil {
		e.log.Error("order slot free failed", zap.Uint64("id", id), zap.Error(err))
	}
	metrics.OrdersCancelled.Inc()
	metrics.OpenOrders.Set(float64(len(e.orders)))
	return true
}

// CancelAllOrders cancels every active order on the symbol and returns how
// many were cancelled. Both the scan and the cancels run under one lock
// acquisition, so no order submitted concurrently can slip between them.
func (e *Engine) CancelAllOrders(symbol core.Symbol) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []core.OrderID
	for id, ref := range e.orders {
		if order, ok := e.pool.Get(ref); ok && order.Symbol == symbol {
			ids = append(ids, id)
		}
	}
	count := 0
	for _, id := range ids {
		if e.cancelLocked(id) {
			count++
		}
	}
	return count
}

// ClosePosition flattens the symbol's position with a market order on the
// opposite side. Returns false when no position is open. The closing order
// runs through the normal submit path, including its risk gates.
func (e *Engine) ClosePosition(symbol core.Symbol) bool {
	e.mu.Lock()
	pos, ok := e.positions[symbol]
	if !ok || pos.IsFlat() {
		e.mu.Unlock()
		return false
	}
	side := core.Sell
	if pos.IsShort() {
		side = core.Buy
	}
	qty := pos.Quantity
	if qty < 0 {
		qty = -qty
	}
	e.mu.Unlock()

	// Submission outcome is intentionally ignored: the return value reports
	// that a close was attempted, matching CancelOrder's found semantics.
	_, _ = e.SubmitOrder(OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     core.Market,
		Quantity: qty,
	})
	return true
}

// CloseAllPositions flattens every open position and returns how many closes
// were issued. Symbols are collected first because each close mutates the
// position table.
func (e *Engine) CloseAllPositions() int {
	e.mu.Lock()
	symbols := make([]core.Symbol, 0, len(e.positions))
	for sym, pos := range e.positions {
		if !pos.IsFlat() {
			symbols = append(symbols, sym)
		}
	}
	e.mu.Unlock()

	count := 0
	for _, sym := range symbols {
		if e.ClosePosition(sym) {
			count++
		}
	}
	return count
}

// UpdateOrderbook replaces the book snapshot for a symbol, creating the book
// on first use. The sequence comes from the feed and is stored verbatim.
func (e *Engine) UpdateOrderbook(symbol core.Symbol, bids, asks []orderbook.Level, sequence uint64, ts core.Timestamp) {
	e.bookFor(symbol).UpdateSnapshot(bids, asks, sequence, ts)
}

// bookFor returns the symbol's book, creating it on first use.
func (e *Engine) bookFor(symbol core.Symbol) *orderbook.Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books[symbol]
	if !ok {
		book = orderbook.New(symbol)
		e.books[symbol] = book
	}
	return book
}

// Book returns the live orderbook for a symbol, or nil if none exists.
func (e *Engine) Book(symbol core.Symbol) *orderbook.Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.books[symbol]
}

// Position returns a copy of the symbol's position.
func (e *Engine) Position(symbol core.Symbol) (core.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[symbol]
	if !ok {
		return core.Position{}, false
	}
	return *pos, true
}

// Ingest pushes one market tick into the ingestion ring. Returns false when
// the ring is full; the caller decides whether to drop or retry. Single
// producer only.
func (e *Engine) Ingest(tick core.MarketTick) bool {
	ok := e.ticks.Push(tick)
	metrics.TickQueueDepth.Set(float64(e.ticks.Len()))
	return ok
}

// DrainTicks pops every buffered tick and applies it as a best-level update
// to the symbol's book, leaving any deeper snapshot levels in place. Returns
// the number of ticks applied. Single consumer only.
func (e *Engine) DrainTicks() int {
	n := 0
	for {
		tick, ok := e.ticks.Pop()
		if !ok {
			break
		}
		book := e.bookFor(tick.Symbol)
		book.UpdateBid(0, orderbook.Level{Price: tick.Bid, Quantity: tick.BidSize, OrderCount: 1}, tick.Timestamp)
		book.UpdateAsk(0, orderbook.Level{Price: tick.Ask, Quantity: tick.AskSize, OrderCount: 1}, tick.Timestamp)
		n++
	}
	metrics.TickQueueDepth.Set(float64(e.ticks.Len()))
	return n
}

// Equity returns current account equity in micro-units.
func (e *Engine) Equity() core.PriceMicro {
	return e.equity.Load()
}

// SetEquity replaces account equity.
func (e *Engine) SetEquity(equity core.PriceMicro) {
	e.equity.Store(equity)
}

// OpenOrderCount returns the number of orders resting in the table.
func (e *Engine) OpenOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orders)
}

// PositionCount returns the number of non-flat positions.
func (e *Engine) PositionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}

// RiskParams returns the engine's risk configuration.
func (e *Engine) RiskParams() core.RiskParams {
	return e.risk
}

// Order returns a copy of an order still resting in the table.
func (e *Engine) Order(id core.OrderID) (core.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, ok := e.orders[id]
	if !ok {
		return core.Order{}, false
	}
	order, ok := e.pool.Get(ref)
	if !ok {
		return core.Order{}, false
	}
	return *order, true
}

// checkPositionRisk projects the position after the order fills completely
// and bounds its notional against equity. Called with mu held.
func (e *Engine) checkPositionRisk(symbol core.Symbol, side core.Side, qty core.QuantityNano) bool {
	newQty := qty
	if side == core.Sell {
		newQty = -qty
	}
	if pos, ok := e.positions[symbol]; ok {
		newQty += pos.Quantity
	}
	if newQty < 0 {
		newQty = -newQty
	}

	notional := core.FromQuantityNano(newQty) * core.FromPriceMicro(e.currentPrice(symbol))
	equityPct := notional / core.FromPriceMicro(e.equity.Load())
	return equityPct <= e.risk.MaxPositionSize
}

// currentPrice is the book mid, or $1 when the symbol has no book yet.
// Called with mu held.
func (e *Engine) currentPrice(symbol core.Symbol) core.PriceMicro {
	if book, ok := e.books[symbol]; ok {
		if mid := book.MidPrice(); mid != 0 {
			return mid
		}
	}
	return core.ToPriceMicro(1.0)
}

// executionPrice estimates the average fill price for a market order.
// Without a book the order prices at $1; with a book the estimate may be 0
// when the opposite side is empty, and the fill then books at 0. Called
// with mu held.
func (e *Engine) executionPrice(symbol core.Symbol, side core.Side, qty core.QuantityNano) core.PriceMicro {
	book, ok := e.books[symbol]
	if !ok {
		return core.ToPriceMicro(1.0)
	}
	price, _ := book.EstimateExecutionPrice(side, qty)
	return price
}

// fill completes a market order: the position books the fill first, then
// the order-level event fires, then the slot returns to the pool. Called
// with mu held.
func (e *Engine) fill(ref mem.Ref, order *core.Order, price core.PriceMicro) {
	order.Status = core.Filled
	order.FilledQty = order.Quantity
	order.UpdatedAt = e.now()

	e.updatePosition(order.Symbol, order.Side, order.Quantity, price)

	e.emit(Event{
		Type: OrderFilled, OrderID: order.ID, Symbol: order.Symbol,
		Price: price, Quantity: order.Quantity, Timestamp: order.UpdatedAt,
		Message: "order filled",
	})

	id := order.ID
	delete(e.orders, id)
	if err := e.pool.Free(ref); err != nil {
		e.log.Error("order slot free failed", zap.Uint64("id", id), zap.Error(err))
	}
	metrics.OrdersFilled.Inc()
	metrics.OpenOrders.Set(float64(len(e.orders)))
}

// updatePosition folds one fill into the symbol's position. Adding to a
// position recomputes the volume-weighted entry in integer micro; reducing
// realizes PnL on the closed portion. A fill that crosses through flat
// starts the remainder at the fill price. Called with mu held.
func (e *Engine) updatePosition(symbol core.Symbol, side core.Side, qty core.QuantityNano, price core.PriceMicro) {
	now := e.now()
	delta := qty
	if side == core.Sell {
		delta = -qty
	}

	pos, ok := e.positions[symbol]
	if !ok {
		pos = &core.Position{
			Symbol:        symbol,
			Quantity:      delta,
			AvgEntryPrice: price,
			OpenedAt:      now,
			UpdatedAt:     now,
		}
		e.positions[symbol] = pos
		metrics.OpenPositions.Set(float64(len(e.positions)))
		e.emit(Event{
			Type: PositionOpened, Symbol: symbol, Price: price, Quantity: qty,
			Timestamp: now, Message: "position opened",
		})
		return
	}

	oldQty := pos.Quantity
	if (oldQty >= 0 && delta > 0) || (oldQty <= 0 && delta < 0) {
		// Same direction: fold into the weighted average entry.
		totalNotional := pos.AvgEntryPrice*abs(oldQty)/core.QuantityScale +
			price*abs(delta)/core.QuantityScale
		pos.Quantity += delta
		if pos.Quantity != 0 {
			pos.AvgEntryPrice = totalNotional * core.QuantityScale / abs(pos.Quantity)
		}
	} else {
		// Opposite direction: realize PnL on the closed portion.
		closed := abs(oldQty)
		if d := abs(delta); d < closed {
			closed = d
		}
		pnl := (price - pos.AvgEntryPrice) * closed / core.QuantityScale
		if oldQty < 0 {
			pnl = -pnl
		}
		pos.RealizedPnL += pnl
		metrics.RealizedPnL.Add(core.FromPriceMicro(pnl))
		pos.Quantity += delta
		if (oldQty > 0) != (pos.Quantity > 0) && pos.Quantity != 0 {
			// Crossed through flat: the surviving side opened at this fill.
			pos.AvgEntryPrice = price
		}
	}
	pos.UpdatedAt = now

	if pos.IsFlat() {
		delete(e.positions, symbol)
		metrics.OpenPositions.Set(float64(len(e.positions)))
		e.emit(Event{
			Type: PositionClosed, Symbol: symbol, Price: price, Quantity: qty,
			Timestamp: now, Message: "position closed",
		})
		return
	}
	e.emit(Event{
		Type: PositionUpdated, Symbol: symbol, Price: price, Quantity: qty,
		Timestamp: now, Message: "position updated",
	})
}

// reject emits an OrderRejected event with id 0. Called with mu held.
func (e *Engine) reject(symbol core.Symbol, qty core.QuantityNano, code core.ErrorCode, msg string) {
	metrics.OrdersRejected.WithLabelValues(code.String()).Inc()
	e.log.Warn("order rejected",
		zap.String("symbol", symbol.String()),
		zap.String("reason", code.String()))
	e.emit(Event{
		Type: OrderRejected, Symbol: symbol, Quantity: qty,
		Timestamp: e.now(), Code: code, Message: msg,
	})
}

func (e *Engine) emit(ev Event) {
	for _, h := range e.handlers {
		h(ev)
	}
}

func (e *Engine) now() core.Timestamp {
	return core.Timestamp(e.clock.Now().UnixNano())
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
