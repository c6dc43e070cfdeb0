// Package orderbook maintains fixed-depth price ladders and the analytics
// derived from them: mid, spread, depth imbalance and execution estimates.
// Storage is two fixed arrays so a book update never allocates.
package orderbook

import (
	"sync"

	"github.com/meridianhft/meridian/pkg/core"
)

// MaxLevels is the depth kept per side. Deeper snapshots are clamped.
const MaxLevels = 25

// Level is one rung of the ladder.
type Level struct {
	Price      core.PriceMicro
	Quantity   core.QuantityNano
	OrderCount uint32
}

// Book is a fixed-depth two-sided orderbook for one instrument.
// Bids are sorted descending by price, asks ascending, index 0 best.
// All methods are safe for concurrent use; reads take the shared lock.
type Book struct {
	mu sync.RWMutex

	symbol core.Symbol
	bids   [MaxLevels]Level
	asks   [MaxLevels]Level

	bidDepth int
	askDepth int

	sequence  uint64
	timestamp core.Timestamp
}

// New returns an empty book for the given symbol.
func New(symbol core.Symbol) *Book {
	return &Book{symbol: symbol}
}

// Symbol returns the instrument this book tracks.
func (b *Book) Symbol() core.Symbol { return b.symbol }

// UpdateSnapshot replaces both sides of the book atomically. Input slices
// beyond MaxLevels are clamped; levels past the slice length are cleared.
// Callers must supply bids descending and asks ascending. The sequence is
// stored verbatim; enforcing monotonicity is the feed's responsibility.
func (b *Book) UpdateSnapshot(bids, asks []Level, sequence uint64, ts core.Timestamp) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bidDepth = copyLevels(&b.bids, bids)
	b.askDepth = copyLevels(&b.asks, asks)
	b.sequence = sequence
	b.timestamp = ts
}

func copyLevels(dst *[MaxLevels]Level, src []Level) int {
	n := len(src)
	if n > MaxLevels {
		n = MaxLevels
	}
	copy(dst[:n], src[:n])
	for i := n; i < MaxLevels; i++ {
		dst[i] = Level{}
	}
	return n
}

// UpdateBid overwrites a single bid level. Touching a level at or beyond
// the current depth extends the recorded depth to index+1; any skipped
// levels in between keep their previous contents (zero on a fresh book),
// so feeds that write sparse levels own the gap hygiene.
func (b *Book) UpdateBid(index int, lvl Level, ts core.Timestamp) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= MaxLevels {
		return
	}
	b.bids[index] = lvl
	if index >= b.bidDepth {
		b.bidDepth = index + 1
	}
	b.timestamp = ts
}

// UpdateAsk overwrites a single ask level, with the same extension rule
// as UpdateBid.
func (b *Book) UpdateAsk(index int, lvl Level, ts core.Timestamp) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= MaxLevels {
		return
	}
	b.asks[index] = lvl
	if index >= b.askDepth {
		b.askDepth = index + 1
	}
	b.timestamp = ts
}

// BestBid returns the highest bid price, or 0 when the side is empty.
func (b *Book) BestBid() core.PriceMicro {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bidDepth == 0 {
		return 0
	}
	return b.bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 when the side is empty.
func (b *Book) BestAsk() core.PriceMicro {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.askDepth == 0 {
		return 0
	}
	return b.asks[0].Price
}

// BestBidSize returns the quantity resting at the top bid.
func (b *Book) BestBidSize() core.QuantityNano {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bidDepth == 0 {
		return 0
	}
	return b.bids[0].Quantity
}

// BestAskSize returns the quantity resting at the top ask.
func (b *Book) BestAskSize() core.QuantityNano {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.askDepth == 0 {
		return 0
	}
	return b.asks[0].Quantity
}

// MidPrice returns (bid+ask)/2 in integer micro, truncated, or 0 when
// either side is empty.
func (b *Book) MidPrice() core.PriceMicro {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bidDepth == 0 || b.askDepth == 0 {
		return 0
	}
	return (b.bids[0].Price + b.asks[0].Price) / 2
}

// Spread returns ask - bid, or 0 when either side is empty.
func (b *Book) Spread() core.PriceMicro {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bidDepth == 0 || b.askDepth == 0 {
		return 0
	}
	return b.asks[0].Price - b.bids[0].Price
}

// SpreadPercent returns the spread as a percentage of the mid price.
func (b *Book) SpreadPercent() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bidDepth == 0 || b.askDepth == 0 {
		return 0
	}
	mid := (b.bids[0].Price + b.asks[0].Price) / 2
	if mid == 0 {
		return 0
	}
	spread := b.asks[0].Price - b.bids[0].Price
	return float64(spread) / float64(mid) * 100
}

// Bid returns the bid level at the given depth index.
func (b *Book) Bid(i int) (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= b.bidDepth {
		return Level{}, false
	}
	return b.bids[i], true
}

// Ask returns the ask level at the given depth index.
func (b *Book) Ask(i int) (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= b.askDepth {
		return Level{}, false
	}
	return b.asks[i], true
}

// BidDepth returns the number of populated bid levels.
func (b *Book) BidDepth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bidDepth
}

// AskDepth returns the number of populated ask levels.
func (b *Book) AskDepth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.askDepth
}

// Sequence returns the feed-supplied sequence of the last snapshot.
func (b *Book) Sequence() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sequence
}

// Timestamp returns the time of the last update.
func (b *Book) Timestamp() core.Timestamp {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.timestamp
}

// TotalBidLiquidity sums bid quantity over the first levels rungs.
func (b *Book) TotalBidLiquidity(levels int) core.QuantityNano {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sumLiquidity(b.bids[:b.bidDepth], levels)
}

// TotalAskLiquidity sums ask quantity over the first levels rungs.
func (b *Book) TotalAskLiquidity(levels int) core.QuantityNano {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sumLiquidity(b.asks[:b.askDepth], levels)
}

func sumLiquidity(side []Level, levels int) core.QuantityNano {
	if levels > len(side) {
		levels = len(side)
	}
	var total core.QuantityNano
	for i := 0; i < levels; i++ {
		total += side[i].Quantity
	}
	return total
}

// Imbalance returns (bidVol - askVol) / (bidVol + askVol) over the given
// depth, in [-1, 1]. Positive values mean buy pressure. Returns 0 when
// both sides are empty.
func (b *Book) Imbalance(levels int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bidVol := sumLiquidity(b.bids[:b.bidDepth], levels)
	askVol := sumLiquidity(b.asks[:b.askDepth], levels)
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return float64(bidVol-askVol) / float64(total)
}

// EstimateExecutionPrice walks the opposite side of the book and returns
// the volume-weighted average price a market order of the given size would
// pay, plus the quantity actually available. A buy consumes asks, a sell
// consumes bids. Returns (0, 0) when the relevant side is empty.
//
// The accumulation divides per level, matching fixed-point truncation of
// the running notional rather than rounding at the end.
func (b *Book) EstimateExecutionPrice(side core.Side, qty core.QuantityNano) (core.PriceMicro, core.QuantityNano) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var levels []Level
	if side == core.Buy {
		levels = b.asks[:b.askDepth]
	} else {
		levels = b.bids[:b.bidDepth]
	}
	if len(levels) == 0 || qty <= 0 {
		return 0, 0
	}

	var (
		weightedSum core.PriceMicro
		filled      core.QuantityNano
		remaining   = qty
	)
	for i := 0; i < len(levels) && remaining > 0; i++ {
		fill := levels[i].Quantity
		if fill > remaining {
			fill = remaining
		}
		weightedSum += levels[i].Price * fill / core.QuantityScale
		filled += fill
		remaining -= fill
	}
	if filled == 0 {
		return 0, 0
	}
	return weightedSum * core.QuantityScale / filled, filled
}

// EstimateSlippage returns the absolute percentage distance between the
// estimated execution price for qty and the best opposing level. Returns 0
// when the relevant side is empty.
func (b *Book) EstimateSlippage(side core.Side, qty core.QuantityNano) float64 {
	exec, _ := b.EstimateExecutionPrice(side, qty)

	var best core.PriceMicro
	if side == core.Buy {
		best = b.BestAsk()
	} else {
		best = b.BestBid()
	}
	if best == 0 {
		return 0
	}
	diff := exec - best
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(best) * 100
}
