// Package core defines the shared types of the execution core: fixed-point
// price/quantity units, symbols, order and position records, and the risk
// parameter set. Everything here is a plain value type so the hot path can
// move data by copy without touching the heap.
package core

import "time"

// Prices are stored in micro-units (1 USD = 1,000,000 micro) and quantities
// in nano-units (1 unit = 1,000,000,000 nano). All money/size arithmetic runs
// in these integer domains; floats appear only at the boundary.
//
// Safe magnitude: price*qty/QuantityScale must fit in int64, so notional up to
// ~9.2e18 micro (≈ $9.2 trillion) is representable. With prices below $1M
// (1e12 micro) any quantity under ~9.2e6 units stays safely inside the range.
type (
	PriceMicro   = int64
	QuantityNano = int64
)

const (
	PriceScale    int64 = 1_000_000
	QuantityScale int64 = 1_000_000_000
)

// ToPriceMicro converts a float price to fixed point, truncating toward zero.
func ToPriceMicro(price float64) PriceMicro {
	return PriceMicro(price * float64(PriceScale))
}

// FromPriceMicro converts a fixed-point price back to a float.
func FromPriceMicro(price PriceMicro) float64 {
	return float64(price) / float64(PriceScale)
}

// ToQuantityNano converts a float quantity to fixed point, truncating toward zero.
func ToQuantityNano(qty float64) QuantityNano {
	return QuantityNano(qty * float64(QuantityScale))
}

// FromQuantityNano converts a fixed-point quantity back to a float.
func FromQuantityNano(qty QuantityNano) float64 {
	return float64(qty) / float64(QuantityScale)
}

// Timestamp is nanoseconds since the Unix epoch.
type Timestamp = uint64

// NowNanos returns the current wall-clock time as a Timestamp.
func NowNanos() Timestamp {
	return Timestamp(time.Now().UnixNano())
}

// SymbolSize is the fixed width of a Symbol: up to 15 printable characters
// plus a NUL terminator.
const SymbolSize = 16

// Symbol is a fixed-width instrument identifier compared by byte equality.
// Using an array (not a string) keeps symbols off the heap and makes
// equality and map hashing O(1) over a fixed width.
type Symbol [SymbolSize]byte

// NewSymbol builds a Symbol from a string, truncating to 15 bytes.
func NewSymbol(s string) Symbol {
	var sym Symbol
	n := len(s)
	if n > SymbolSize-1 {
		n = SymbolSize - 1
	}
	copy(sym[:n], s)
	return sym
}

// String returns the symbol up to the first NUL byte.
func (s Symbol) String() string {
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s[:])
}

// IsZero reports whether the symbol is empty.
func (s Symbol) IsZero() bool {
	return s[0] == 0
}

// Side is the direction of an order or fill.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType selects the execution style of an order.
type OrderType uint8

const (
	Market OrderType = iota
	Limit
	StopMarket
	StopLimit
	TrailingStop
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case StopMarket:
		return "stop_market"
	case StopLimit:
		return "stop_limit"
	case TrailingStop:
		return "trailing_stop"
	default:
		return "unknown"
	}
}

// TimeInForce controls how long a resting order stays live.
type TimeInForce uint8

const (
	GTC TimeInForce = iota // good 'til cancelled
	IOC                    // immediate or cancel
	FOK                    // fill or kill
	GTD                    // good 'til date
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case GTD:
		return "GTD"
	default:
		return "unknown"
	}
}

// OrderStatus is the lifecycle state of an order.
//
// Transitions: PENDING → {OPEN, REJECTED}; OPEN → {PARTIALLY_FILLED, FILLED,
// CANCELLED}; PARTIALLY_FILLED → {PARTIALLY_FILLED, FILLED, CANCELLED}.
// FILLED, CANCELLED, REJECTED and EXPIRED are terminal.
type OrderStatus uint8

const (
	Pending OrderStatus = iota
	Open
	PartiallyFilled
	Filled
	Cancelled
	Rejected
	Expired
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Open:
		return "open"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case Filled, Cancelled, Rejected, Expired:
		return true
	}
	return false
}

// OrderID identifies an order. IDs are assigned monotonically from 1 and
// never reused; 0 means "no order" (rejected submission).
type OrderID = uint64

// Order is a single order record. Orders live in the engine's object pool
// and are mutated only by the engine while it holds the order-table lock.
type Order struct {
	ID        OrderID
	CreatedAt Timestamp
	UpdatedAt Timestamp
	Symbol    Symbol
	Price     PriceMicro   // limit price (0 for market)
	StopPrice PriceMicro   // trigger price for stop orders
	Quantity  QuantityNano // requested size
	FilledQty QuantityNano // filled so far, always <= Quantity
	Side      Side
	Type      OrderType
	TIF       TimeInForce
	Status    OrderStatus
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() QuantityNano {
	return o.Quantity - o.FilledQty
}

// IsActive reports whether the order can still fill or be cancelled.
func (o *Order) IsActive() bool {
	return o.Status == Open || o.Status == PartiallyFilled
}

// Position is a per-symbol aggregate of fills.
// Quantity is signed: positive = long, negative = short, zero = flat.
// A flat position is removed from the engine's table, never stored.
type Position struct {
	Symbol        Symbol
	Quantity      QuantityNano
	AvgEntryPrice PriceMicro // volume-weighted average entry
	RealizedPnL   PriceMicro // cumulative, in micro-units
	OpenedAt      Timestamp
	UpdatedAt     Timestamp
}

func (p *Position) IsLong() bool  { return p.Quantity > 0 }
func (p *Position) IsShort() bool { return p.Quantity < 0 }
func (p *Position) IsFlat() bool  { return p.Quantity == 0 }

// UnrealizedPnL computes mark-to-market profit at the given price.
// Formula: (mark - entry) × qty / QuantityScale. The signed quantity makes
// short positions profit when the mark drops.
func (p *Position) UnrealizedPnL(mark PriceMicro) PriceMicro {
	if p.Quantity == 0 {
		return 0
	}
	return (mark - p.AvgEntryPrice) * p.Quantity / QuantityScale
}

// NotionalValue returns the dollar exposure |qty| × entry as a float.
func (p *Position) NotionalValue() float64 {
	return FromPriceMicro(p.AvgEntryPrice) * FromQuantityNano(absInt64(p.Quantity))
}

// MarketTick is a single top-of-book market data update. Ticks are value
// types sized to move through the ingestion ring by copy.
type MarketTick struct {
	Timestamp Timestamp
	Symbol    Symbol
	Bid       PriceMicro
	Ask       PriceMicro
	Last      PriceMicro
	BidSize   QuantityNano
	AskSize   QuantityNano
	Sequence  uint64
}

// Spread returns ask - bid as a float price.
func (t *MarketTick) Spread() float64 {
	return FromPriceMicro(t.Ask - t.Bid)
}

// MidPrice returns (bid+ask)/2 as a float price.
func (t *MarketTick) MidPrice() float64 {
	return FromPriceMicro((t.Bid + t.Ask) / 2)
}

// RiskParams configures the engine's pre-trade gates. Immutable per engine
// instance unless explicitly replaced.
type RiskParams struct {
	MaxPositionSize   float64 // fraction of equity one symbol's notional may reach
	MaxDrawdown       float64
	StopLossPercent   float64
	TakeProfitPercent float64
	MaxOpenOrders     int
	MaxDailyTrades    int
}

// DefaultRiskParams returns the standard configuration: 10% position cap,
// 5% drawdown, 2%/3% stop/take levels, 10 open orders, 100 daily trades.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		MaxPositionSize:   0.1,
		MaxDrawdown:       0.05,
		StopLossPercent:   0.02,
		TakeProfitPercent: 0.03,
		MaxOpenOrders:     10,
		MaxDailyTrades:    100,
	}
}

// ErrorCode classifies rejection reasons carried on events. Failures inside
// the core never panic across the public boundary; they surface as sentinel
// returns plus one of these codes.
type ErrorCode int32

const (
	OK                 ErrorCode = 0
	InvalidSymbol      ErrorCode = -1
	InvalidQuantity    ErrorCode = -2
	InvalidPrice       ErrorCode = -3
	InsufficientMargin ErrorCode = -4
	RiskLimitExceeded  ErrorCode = -5
	OrderNotFound      ErrorCode = -6
	PositionNotFound   ErrorCode = -7
	NetworkError       ErrorCode = -8  // reserved for transport layers
	Timeout            ErrorCode = -9  // reserved
	RateLimited        ErrorCode = -10 // reserved
	InternalError      ErrorCode = -100
)

func (e ErrorCode) String() string {
	switch e {
	case OK:
		return "ok"
	case InvalidSymbol:
		return "invalid_symbol"
	case InvalidQuantity:
		return "invalid_quantity"
	case InvalidPrice:
		return "invalid_price"
	case InsufficientMargin:
		return "insufficient_margin"
	case RiskLimitExceeded:
		return "risk_limit_exceeded"
	case OrderNotFound:
		return "order_not_found"
	case PositionNotFound:
		return "position_not_found"
	case NetworkError:
		return "network_error"
	case Timeout:
		return "timeout"
	case RateLimited:
		return "rate_limited"
	case InternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// absInt64 returns absolute value of int64
func absInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
