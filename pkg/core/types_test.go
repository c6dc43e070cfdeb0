package core

import "testing"

func TestFixedPointConversions(t *testing.T) {
	cases := []struct {
		price float64
		want  PriceMicro
	}{
		{0, 0},
		{1.0, 1_000_000},
		{0.142857, 142_857},
		{50_000.5, 50_000_500_000},
	}
	for _, c := range cases {
		got := ToPriceMicro(c.price)
		if got != c.want {
			t.Errorf("ToPriceMicro(%v) = %d, want %d", c.price, got, c.want)
		}
		back := FromPriceMicro(got)
		if back != c.price {
			t.Errorf("FromPriceMicro(%d) = %v, want %v", got, back, c.price)
		}
	}

	if q := ToQuantityNano(2.5); q != 2_500_000_000 {
		t.Errorf("ToQuantityNano(2.5) = %d", q)
	}
	if f := FromQuantityNano(1_500_000_000); f != 1.5 {
		t.Errorf("FromQuantityNano = %v", f)
	}
}

func TestSymbol(t *testing.T) {
	s := NewSymbol("BTC/USDT")
	if s.String() != "BTC/USDT" {
		t.Errorf("String() = %q", s.String())
	}
	if s.IsZero() {
		t.Error("non-empty symbol reported zero")
	}

	// Equality is byte equality, usable as a map key.
	if s != NewSymbol("BTC/USDT") {
		t.Error("identical symbols not equal")
	}
	if s == NewSymbol("ETH/USDT") {
		t.Error("different symbols equal")
	}

	// Over-long names truncate to 15 bytes.
	long := NewSymbol("ABCDEFGHIJKLMNOPQRST")
	if long.String() != "ABCDEFGHIJKLMNO" {
		t.Errorf("truncated = %q", long.String())
	}

	var empty Symbol
	if !empty.IsZero() {
		t.Error("zero symbol not reported zero")
	}
	if empty.String() != "" {
		t.Errorf("zero symbol String() = %q", empty.String())
	}
}

func TestOrderRemainingAndActive(t *testing.T) {
	o := Order{
		Quantity:  ToQuantityNano(10),
		FilledQty: ToQuantityNano(4),
		Status:    PartiallyFilled,
	}
	if o.Remaining() != ToQuantityNano(6) {
		t.Errorf("Remaining = %d", o.Remaining())
	}
	if !o.IsActive() {
		t.Error("partially filled order not active")
	}

	o.Status = Filled
	if o.IsActive() {
		t.Error("filled order still active")
	}
	o.Status = Pending
	if o.IsActive() {
		t.Error("pending order reported active")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{Filled, Cancelled, Rejected, Expired}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%v not terminal", s)
		}
	}
	for _, s := range []OrderStatus{Pending, Open, PartiallyFilled} {
		if s.IsTerminal() {
			t.Errorf("%v reported terminal", s)
		}
	}
}

func TestPositionPnL(t *testing.T) {
	long := Position{
		Quantity:      ToQuantityNano(2),
		AvgEntryPrice: ToPriceMicro(100),
	}
	// Long 2 @ 100, mark 110: +20.
	if pnl := long.UnrealizedPnL(ToPriceMicro(110)); pnl != ToPriceMicro(20) {
		t.Errorf("long uPnL = %d, want %d", pnl, ToPriceMicro(20))
	}

	short := Position{
		Quantity:      -ToQuantityNano(3),
		AvgEntryPrice: ToPriceMicro(100),
	}
	// Short 3 @ 100, mark 90: +30.
	if pnl := short.UnrealizedPnL(ToPriceMicro(90)); pnl != ToPriceMicro(30) {
		t.Errorf("short uPnL = %d, want %d", pnl, ToPriceMicro(30))
	}
	if !short.IsShort() || short.IsLong() || short.IsFlat() {
		t.Error("short position flags wrong")
	}

	if nv := short.NotionalValue(); nv != 300 {
		t.Errorf("notional = %v, want 300", nv)
	}

	var flat Position
	if !flat.IsFlat() || flat.UnrealizedPnL(ToPriceMicro(100)) != 0 {
		t.Error("flat position has PnL")
	}
}

func TestMarketTickDerived(t *testing.T) {
	tick := MarketTick{
		Bid: ToPriceMicro(99.5),
		Ask: ToPriceMicro(100.5),
	}
	if tick.Spread() != 1.0 {
		t.Errorf("spread = %v", tick.Spread())
	}
	if tick.MidPrice() != 100.0 {
		t.Errorf("mid = %v", tick.MidPrice())
	}
}

func TestSideOpposite(t *testing.T) {
	if Buy.Opposite() != Sell || Sell.Opposite() != Buy {
		t.Error("Opposite broken")
	}
}

func TestEnumStrings(t *testing.T) {
	if Buy.String() != "buy" || Sell.String() != "sell" {
		t.Error("side strings wrong")
	}
	if Market.String() != "market" || Limit.String() != "limit" {
		t.Error("type strings wrong")
	}
	if GTC.String() != "GTC" || IOC.String() != "IOC" {
		t.Error("tif strings wrong")
	}
	if RiskLimitExceeded.String() != "risk_limit_exceeded" {
		t.Errorf("code string = %q", RiskLimitExceeded.String())
	}
	if OK.String() != "ok" {
		t.Errorf("OK string = %q", OK.String())
	}
}
