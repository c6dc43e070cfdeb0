package engine

import "github.com/meridianhft/meridian/pkg/core"

// EventType tags execution lifecycle notifications.
type EventType uint8

const (
	OrderSubmitted EventType = iota
	OrderAccepted
	OrderRejected
	OrderPartiallyFilled
	OrderFilled
	OrderCancelled
	PositionOpened
	PositionUpdated
	PositionClosed
	RiskAlert
)

func (t EventType) String() string {
	switch t {
	case OrderSubmitted:
		return "order_submitted"
	case OrderAccepted:
		return "order_accepted"
	case OrderRejected:
		return "order_rejected"
	case OrderPartiallyFilled:
		return "order_partially_filled"
	case OrderFilled:
		return "order_filled"
	case OrderCancelled:
		return "order_cancelled"
	case PositionOpened:
		return "position_opened"
	case PositionUpdated:
		return "position_updated"
	case PositionClosed:
		return "position_closed"
	case RiskAlert:
		return "risk_alert"
	default:
		return "unknown"
	}
}

// Event is a single execution notification. Events are delivered
// synchronously on the goroutine that triggered them, in the order the
// transitions happened; handlers must not call back into the engine.
type Event struct {
	Type      EventType
	OrderID   core.OrderID
	Symbol    core.Symbol
	Price     core.PriceMicro
	Quantity  core.QuantityNano
	Timestamp core.Timestamp
	Code      core.ErrorCode
	Message   string
}

// Handler receives execution events. Handlers run inline on the engine's
// calling goroutine and should return quickly.
type Handler func(Event)
