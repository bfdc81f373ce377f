// Package book implements the single-instrument limit order book: a
// time-ordered price level per price point, and the two-sided book with
// an order index, generalized from internal/engine/orderbook.go's
// float64-keyed tidwall/btree book to decimal.Decimal keys plus an
// order index whose position hints locate an order to cancel without a
// scan of its level.
package book

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// PriceLevel is the time-ordered sequence of resting orders at a single
// price, with cached aggregate volume and order count. Orders are
// appended to the tail and consumed head-first; ties at the same price
// are strictly FIFO by arrival, matching §4.1.
type PriceLevel struct {
	Price  decimal.Decimal
	orders []*common.Order

	totalVolume decimal.Decimal
	count       int
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, totalVolume: decimal.Zero}
}

// Append adds an order to the tail of the level and refreshes the
// cached volume/count in constant time.
func (l *PriceLevel) Append(o *common.Order) {
	l.orders = append(l.orders, o)
	l.totalVolume = l.totalVolume.Add(o.Remaining)
	l.count++
}

// PeekFront returns the head (oldest) order, or nil if the level is empty.
func (l *PriceLevel) PeekFront() *common.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PopFront removes and returns the head order.
func (l *PriceLevel) PopFront() *common.Order {
	if len(l.orders) == 0 {
		return nil
	}
	o := l.orders[0]
	l.orders = l.orders[1:]
	l.count--
	return o
}

// Remove deletes the order at slot from the level, wherever it sits.
// O(order-count) worst case, as allowed by §4.1; the book's order index
// carries a position hint so the common case (cancel of a resting
// order found via the index) does not need to scan from the front.
func (l *PriceLevel) Remove(slot int) *common.Order {
	if slot < 0 || slot >= len(l.orders) {
		return nil
	}
	o := l.orders[slot]
	l.orders = append(l.orders[:slot], l.orders[slot+1:]...)
	l.count--
	return o
}

// RefreshVolume recomputes the cached total from the order's remaining
// fields whenever it drifts (a partial fill on the head order updates
// the level's aggregate without a structural change).
func (l *PriceLevel) RefreshVolume() {
	total := decimal.Zero
	for _, o := range l.orders {
		total = total.Add(o.Remaining)
	}
	l.totalVolume = total
}

// TotalVolume returns the cached aggregate remaining quantity at this level.
func (l *PriceLevel) TotalVolume() decimal.Decimal { return l.totalVolume }

// Count returns the cached number of resting orders at this level.
func (l *PriceLevel) Count() int { return l.count }

// Empty reports whether the level has no resting orders left.
func (l *PriceLevel) Empty() bool { return len(l.orders) == 0 }

// Orders returns the time-ordered slice of resting orders. Callers must
// not mutate the returned slice.
func (l *PriceLevel) Orders() []*common.Order { return l.orders }

// indexOf returns the slot of the given order id within the level, or
// -1. Used only as a fallback when the index's position hint is stale.
func (l *PriceLevel) indexOf(id common.OrderID) int {
	for i, o := range l.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}
