package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"matchcore/internal/common"
)

type levels = btree.BTreeG[*PriceLevel]

// indexEntry is the order index's (side, price, position-hint) tuple
// per §3's Order Book invariants. The hint finds the order without a
// scan; removing it still shifts and re-indexes the later orders of the
// level, so cancel is O(order-count) in the level.
type indexEntry struct {
	side  common.Side
	level *PriceLevel
	slot  int
}

// Book is the two-sided order book for a single instrument: bid levels
// ordered high→low, ask levels ordered low→high, plus the order index
// mapping order id to its resting location. Generalizes
// internal/engine/orderbook.go's OrderBook (same btree-pair shape,
// same get-or-create-level insert, same delete-when-empty sweep) from
// float64 prices to decimal.Decimal prices, and adds the order index
// the teacher's draft never built.
type Book struct {
	InstrumentID common.InstrumentID

	bids *levels // ordered greatest price first
	asks *levels // ordered least price first

	index map[common.OrderID]*indexEntry

	bestBidCached *decimalBox
	bestAskCached *decimalBox
}

// decimalBox lets us cache "no best price" distinctly from a zero price.
type decimalBox struct {
	price decimal.Decimal
	valid bool
}

func New(instrumentID common.InstrumentID) *Book {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &Book{
		InstrumentID:  instrumentID,
		bids:          bids,
		asks:          asks,
		index:         make(map[common.OrderID]*indexEntry),
		bestBidCached: &decimalBox{},
		bestAskCached: &decimalBox{},
	}
}

func (b *Book) levelsFor(side common.Side) *levels {
	if side == common.Bid {
		return b.bids
	}
	return b.asks
}

// AddResting inserts a not-fully-matched limit/stop-limit remainder at
// order.LimitPrice, creating the level if absent, and refreshes the
// cached best price if the insert is at a new extremum.
func (b *Book) AddResting(o *common.Order) error {
	if _, exists := b.index[o.ID]; exists {
		return common.ErrDuplicateOrderID
	}
	if o.LimitPrice == nil {
		return common.ErrInvariantViolation
	}
	side := o.Side
	ls := b.levelsFor(side)
	price := *o.LimitPrice

	level, ok := ls.GetMut(&PriceLevel{Price: price})
	if !ok {
		level = newPriceLevel(price)
		ls.Set(level)
	}
	level.Append(o)
	slot := len(level.orders) - 1
	b.index[o.ID] = &indexEntry{side: side, level: level, slot: slot}
	b.refreshBest(side)
	return nil
}

// Cancel locates the order via the index, removes it from its level,
// drops the level if it becomes empty, and refreshes the caches.
func (b *Book) Cancel(id common.OrderID) (*common.Order, error) {
	entry, ok := b.index[id]
	if !ok {
		return nil, common.ErrOrderNotFound
	}
	slot := entry.slot
	if slot >= len(entry.level.orders) || entry.level.orders[slot].ID != id {
		slot = entry.level.indexOf(id)
		if slot < 0 {
			return nil, common.ErrOrderNotFound
		}
	}
	removed := entry.level.Remove(slot)
	entry.level.RefreshVolume()
	b.reindexAfterRemoval(entry.level, slot)
	delete(b.index, id)

	if entry.level.Empty() {
		b.levelsFor(entry.side).Delete(entry.level)
	}
	b.refreshBest(entry.side)
	return removed, nil
}

// reindexAfterRemoval fixes up the position hints of every order that
// shifted left by one slot within the level after a removal.
func (b *Book) reindexAfterRemoval(level *PriceLevel, removedSlot int) {
	for i := removedSlot; i < len(level.orders); i++ {
		if e, ok := b.index[level.orders[i].ID]; ok {
			e.slot = i
		}
	}
}

// PopFront removes and returns the head order of the given level,
// keeping the index, cached volume, and level deletion coherent. Used
// by the matcher when a maker is fully consumed; the popped order's own
// Remaining is already zeroed by the fill that preceded this call, so
// the level's cached volume is recomputed from what's left rather than
// decremented by the (now zero) popped amount.
func (b *Book) PopFront(side common.Side, level *PriceLevel) *common.Order {
	o := level.PopFront()
	if o == nil {
		return nil
	}
	level.RefreshVolume()
	delete(b.index, o.ID)
	b.reindexAfterRemoval(level, 0)
	if level.Empty() {
		b.levelsFor(side).Delete(level)
	}
	b.refreshBest(side)
	return o
}

// DeleteLevelIfEmpty removes level from its side if it has no orders left.
func (b *Book) DeleteLevelIfEmpty(side common.Side, level *PriceLevel) {
	if level.Empty() {
		b.levelsFor(side).Delete(level)
		b.refreshBest(side)
	}
}

// BestLevel returns the top-of-book level for side, or nil if that side
// is empty.
func (b *Book) BestLevel(side common.Side) *PriceLevel {
	level, ok := b.levelsFor(side).Min()
	if !ok {
		return nil
	}
	return level
}

// BestLevelMut returns a mutable handle to the top-of-book level.
func (b *Book) BestLevelMut(side common.Side) *PriceLevel {
	level, ok := b.levelsFor(side).MinMut()
	if !ok {
		return nil
	}
	return level
}

func (b *Book) refreshBest(side common.Side) {
	level, ok := b.levelsFor(side).Min()
	box := b.bestBidCached
	if side == common.Ask {
		box = b.bestAskCached
	}
	if !ok {
		box.valid = false
		return
	}
	box.price = level.Price
	box.valid = true
}

// BestBid returns the cached best bid price, if the bid side is non-empty.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	return b.bestBidCached.price, b.bestBidCached.valid
}

// BestAsk returns the cached best ask price, if the ask side is non-empty.
func (b *Book) BestAsk() (decimal.Decimal, bool) {
	return b.bestAskCached.price, b.bestAskCached.valid
}

// VolumeAt returns the cached total remaining volume at (side, price).
func (b *Book) VolumeAt(side common.Side, price decimal.Decimal) decimal.Decimal {
	level, ok := b.levelsFor(side).Get(&PriceLevel{Price: price})
	if !ok {
		return decimal.Zero
	}
	return level.TotalVolume()
}

// OrdersAt returns the resting orders at (side, price) in time order.
func (b *Book) OrdersAt(side common.Side, price decimal.Decimal) []*common.Order {
	level, ok := b.levelsFor(side).Get(&PriceLevel{Price: price})
	if !ok {
		return nil
	}
	return level.Orders()
}

// CheckFOKLiquidity walks levels on the opposite side of `side` up to
// limitPrice, summing remaining quantity, and reports whether base is
// fully coverable without mutating any state.
func (b *Book) CheckFOKLiquidity(side common.Side, limitPrice decimal.Decimal, base decimal.Decimal, hasLimit bool) bool {
	opposite := side.Opposite()
	available := decimal.Zero
	b.levelsFor(opposite).Ascend(nil, func(level *PriceLevel) bool {
		if hasLimit {
			if side == common.Bid && level.Price.GreaterThan(limitPrice) {
				return false
			}
			if side == common.Ask && level.Price.LessThan(limitPrice) {
				return false
			}
		}
		available = available.Add(level.TotalVolume())
		return !available.GreaterThanOrEqual(base)
	})
	return available.GreaterThanOrEqual(base)
}

// Crosses reports whether the opposite side's best price crosses the
// taker's limit (or always true for an unbounded market sweep when
// hasLimit is false).
func (b *Book) Crosses(side common.Side, limitPrice decimal.Decimal, hasLimit bool) bool {
	best := b.BestLevel(side.Opposite())
	if best == nil {
		return false
	}
	if !hasLimit {
		return true
	}
	if side == common.Bid {
		return best.Price.LessThanOrEqual(limitPrice)
	}
	return best.Price.GreaterThanOrEqual(limitPrice)
}

// SideVolume sums the remaining quantity resting on side, used by the
// book/depth coherence test property.
func (b *Book) SideVolume(side common.Side) decimal.Decimal {
	total := decimal.Zero
	b.levelsFor(side).Ascend(nil, func(level *PriceLevel) bool {
		total = total.Add(level.TotalVolume())
		return true
	})
	return total
}

// Levels returns the side's price levels in matching order, from best
// to worst. Intended for tests and depth snapshotting.
func (b *Book) Levels(side common.Side) []*PriceLevel {
	var out []*PriceLevel
	b.levelsFor(side).Ascend(nil, func(level *PriceLevel) bool {
		out = append(out, level)
		return true
	})
	return out
}
