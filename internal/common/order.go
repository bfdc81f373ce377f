package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the canonical order entity. It generalizes
// internal/common/order.go's teacher shape (UUID, AssetType, OrderType,
// Side, LimitPrice, Quantity, Timestamp, Owner) from float64 to
// decimal.Decimal and adds the fields the spec's lifecycle needs:
// ClientOrderID, TriggerPrice, FilledBase/FilledQuote, Status, TimeInForce.
type Order struct {
	ID             OrderID
	ClientOrderID  string // optional, caller-supplied correlation id
	AccountID      AccountID
	InstrumentID   InstrumentID
	Side           Side
	Type           OrderType
	LimitPrice     *decimal.Decimal // required for Limit/StopLimit
	TriggerPrice   *decimal.Decimal // required for Stop/StopLimit
	BaseAmount     decimal.Decimal
	Remaining      decimal.Decimal
	FilledBase     decimal.Decimal
	FilledQuote    decimal.Decimal
	Status         OrderStatus
	TimeInForce    TimeInForce
	RejectReason   RejectReason
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep-enough copy of the order for safe inclusion in
// events or ProcessOutcome snapshots, without sharing the pointer
// receiver the worker continues to mutate.
func (o *Order) Clone() Order {
	cp := *o
	if o.LimitPrice != nil {
		lp := *o.LimitPrice
		cp.LimitPrice = &lp
	}
	if o.TriggerPrice != nil {
		tp := *o.TriggerPrice
		cp.TriggerPrice = &tp
	}
	return cp
}

// CheckFillInvariant reports whether FilledBase + Remaining == BaseAmount,
// the fill/remaining invariant every order must hold at every step (§8).
func (o *Order) CheckFillInvariant() bool {
	return o.FilledBase.Add(o.Remaining).Equal(o.BaseAmount)
}

// ApplyFill mutates the order to reflect a match of baseQty at price,
// updating filled/remaining and the monotonic filled totals. It never
// decreases FilledBase/FilledQuote and never lets Remaining go negative.
func (o *Order) ApplyFill(baseQty, quoteQty decimal.Decimal, now time.Time) {
	o.FilledBase = o.FilledBase.Add(baseQty)
	o.FilledQuote = o.FilledQuote.Add(quoteQty)
	o.Remaining = o.Remaining.Sub(baseQty)
	if o.Remaining.IsNegative() {
		o.Remaining = decimal.Zero
	}
	o.UpdatedAt = now
}

// IsBuy reports whether the order is a bid.
func (o *Order) IsBuy() bool { return o.Side == Bid }

func (o Order) String() string {
	limit := "-"
	if o.LimitPrice != nil {
		limit = o.LimitPrice.String()
	}
	trigger := "-"
	if o.TriggerPrice != nil {
		trigger = o.TriggerPrice.String()
	}
	return fmt.Sprintf(
		"Order{id=%s client=%q account=%s instrument=%s side=%s type=%s tif=%s "+
			"limit=%s trigger=%s base=%s remaining=%s filled=%s status=%s}",
		o.ID, o.ClientOrderID, o.AccountID, o.InstrumentID, o.Side, o.Type, o.TimeInForce,
		limit, trigger, o.BaseAmount, o.Remaining, o.FilledBase, o.Status,
	)
}
