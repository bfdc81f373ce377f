// Package depth maintains an aggregated top-N view of a book side,
// rebuilt from the authoritative book in the same critical step as each
// book mutation, so no separate locking is ever needed (§4.4). It keeps
// no ordered structure of its own: each refresh reads the book's
// price-ordered levels (internal/book's tidwall/btree sides). The
// teacher's OrderBook only ever tracked a single running total per
// side, never a per-level view.
package depth

import (
	"time"

	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/common"
)

// Entry is one aggregated (price, volume, order-count) row.
type Entry struct {
	Price      decimal.Decimal
	Volume     decimal.Decimal
	OrderCount int
}

// View is a point-in-time snapshot of the top-N levels per side.
type View struct {
	InstrumentID common.InstrumentID
	Bids         []Entry
	Asks         []Entry
	Timestamp    time.Time
}

// Tracker caches aggregated top-N views for an instrument's book. It
// holds no authoritative state of its own; Refresh re-derives the
// snapshot from the book every time the owning worker calls it, which
// is cheap because the book's levels are already held in price order.
type Tracker struct {
	maxLevels int
	last      View
}

// New creates a tracker capped at maxLevels per side.
func New(instrumentID common.InstrumentID, maxLevels int) *Tracker {
	return &Tracker{
		maxLevels: maxLevels,
		last: View{
			InstrumentID: instrumentID,
		},
	}
}

// Refresh rebuilds the cached snapshot from the book's current state.
// Must be called from the same single-threaded worker step that
// mutated the book, per §4.4's coherence invariant.
func (t *Tracker) Refresh(b *book.Book, now time.Time) View {
	t.last = View{
		InstrumentID: b.InstrumentID,
		Bids:         levelEntries(b.Levels(common.Bid), t.maxLevels),
		Asks:         levelEntries(b.Levels(common.Ask), t.maxLevels),
		Timestamp:    now,
	}
	return t.last
}

// Snapshot returns the most recently refreshed view without recomputing.
func (t *Tracker) Snapshot() View { return t.last }

func levelEntries(levels []*book.PriceLevel, max int) []Entry {
	n := len(levels)
	if max > 0 && n > max {
		n = max
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		l := levels[i]
		out = append(out, Entry{
			Price:      l.Price,
			Volume:     l.TotalVolume(),
			OrderCount: l.Count(),
		})
	}
	return out
}

// SumBids and SumAsks return the total volume over the levels the view
// captured on each side. The view is capped at N levels, so when the
// book holds more than N levels on a side the sum is smaller than that
// side's resting volume in the book.
func (v View) SumBids() decimal.Decimal { return sumEntries(v.Bids) }
func (v View) SumAsks() decimal.Decimal { return sumEntries(v.Asks) }

func sumEntries(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Volume)
	}
	return total
}
