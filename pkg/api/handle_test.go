package api

import (
	"testing"

	"github.com/meridianhft/meridian/pkg/core"
	"github.com/meridianhft/meridian/pkg/core/engine"
)

func TestNilHandleIsSafe(t *testing.T) {
	var h *Handle

	// Every call on a nil handle must degrade to a zero-valued no-op.
	h.Close()
	h.UpdateOrderbook("BTC/USDT", []float64{99}, []float64{1}, []float64{101}, []float64{1})
	if h.MidPrice("BTC/USDT") != 0 {
		t.Error("nil MidPrice != 0")
	}
	if h.SubmitOrder("BTC/USDT", 0, 0, 1, 100) != 0 {
		t.Error("nil SubmitOrder != 0")
	}
	if h.CancelOrder(1) {
		t.Error("nil CancelOrder != false")
	}
	if h.CancelAllOrders("BTC/USDT") != 0 {
		t.Error("nil CancelAllOrders != 0")
	}
	if h.ClosePosition("BTC/USDT") {
		t.Error("nil ClosePosition != false")
	}
	if h.CloseAllPositions() != 0 {
		t.Error("nil CloseAllPositions != 0")
	}
	if _, _, _, ok := h.Position("BTC/USDT"); ok {
		t.Error("nil Position ok")
	}
	if h.Equity() != 0 {
		t.Error("nil Equity != 0")
	}
	h.SetEquity(100)
	if h.OpenOrderCount() != 0 || h.PositionCount() != 0 {
		t.Error("nil counts != 0")
	}
	h.RegisterHandler(func(engine.Event) {})
	if h.Engine() != nil {
		t.Error("nil Engine() != nil")
	}
}

func TestClosedHandleIsSafe(t *testing.T) {
	h, err := Open(engine.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h.Close()
	h.Close() // idempotent

	if h.SubmitOrder("BTC/USDT", 0, 0, 1, 100) != 0 {
		t.Error("closed SubmitOrder != 0")
	}
	if h.Engine() != nil {
		t.Error("closed Engine() != nil")
	}
}

func TestSubmitAndPosition(t *testing.T) {
	h, err := Open(engine.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	h.UpdateOrderbook("BTC/USDT",
		[]float64{99, 98}, []float64{10, 10},
		[]float64{101, 102}, []float64{10, 10},
	)
	if mid := h.MidPrice("BTC/USDT"); mid != 100 {
		t.Errorf("mid = %v, want 100", mid)
	}
	if got := h.SpreadPercent("BTC/USDT"); got != 2.0 {
		t.Errorf("spread%% = %v, want 2", got)
	}
	if got := h.Imbalance("BTC/USDT", 25); got != 0 {
		t.Errorf("imbalance = %v, want 0", got)
	}

	// Market buy 5 fills against the asks: 5 @ 101.
	id := h.SubmitOrder("BTC/USDT", 0, 0, 5, 0)
	if id == 0 {
		t.Fatal("submit rejected")
	}

	qty, entry, pnl, ok := h.Position("BTC/USDT")
	if !ok {
		t.Fatal("no position")
	}
	if qty != 5 || entry != 101 || pnl != 0 {
		t.Errorf("position = %v @ %v pnl %v", qty, entry, pnl)
	}
	if h.PositionCount() != 1 {
		t.Errorf("position count = %d", h.PositionCount())
	}

	if !h.ClosePosition("BTC/USDT") {
		t.Error("close failed")
	}
	if _, _, _, ok := h.Position("BTC/USDT"); ok {
		t.Error("position survived close")
	}
}

func TestRejectionReturnsZeroID(t *testing.T) {
	h, _ := Open(engine.Options{})
	defer h.Close()

	if id := h.SubmitOrder("", 0, 0, 1, 100); id != 0 {
		t.Errorf("empty symbol id = %d", id)
	}
	if id := h.SubmitOrder("BTC/USDT", 0, 0, -1, 100); id != 0 {
		t.Errorf("negative qty id = %d", id)
	}
}

func TestOrderLifecycleThroughHandle(t *testing.T) {
	h, _ := Open(engine.Options{})
	defer h.Close()

	var events []engine.EventType
	h.RegisterHandler(func(ev engine.Event) { events = append(events, ev.Type) })

	// Limit order rests, then cancels.
	id := h.SubmitOrder("BTC/USDT", 0, 1, 1, 95)
	if id == 0 {
		t.Fatal("limit submit rejected")
	}
	if h.OpenOrderCount() != 1 {
		t.Errorf("open orders = %d", h.OpenOrderCount())
	}
	if !h.CancelOrder(id) {
		t.Error("cancel failed")
	}
	if h.OpenOrderCount() != 0 {
		t.Errorf("open orders after cancel = %d", h.OpenOrderCount())
	}
	if len(events) != 3 {
		t.Errorf("events = %v, want submitted/accepted/cancelled", events)
	}
}

func TestUpdateOrderbookMismatchedSlices(t *testing.T) {
	h, _ := Open(engine.Options{})
	defer h.Close()

	// Shorter size slice clamps the side.
	h.UpdateOrderbook("BTC/USDT",
		[]float64{99, 98, 97}, []float64{1},
		[]float64{101}, []float64{1, 2, 3},
	)
	book := h.Engine().Book(core.NewSymbol("BTC/USDT"))
	if book.BidDepth() != 1 || book.AskDepth() != 1 {
		t.Errorf("depths = %d/%d, want 1/1", book.BidDepth(), book.AskDepth())
	}
}
