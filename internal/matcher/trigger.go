package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// triggerPool holds Stop/StopLimit orders waiting for the reference
// price to cross their trigger. Orders are kept in one flat slice in
// arrival order, not keyed by (side, trigger_price); every evaluation
// scans the whole pool. Grounded on other_examples/YoForex005-Trading-Engine's
// PendingOrder (TriggerPrice + StatusTriggered) generalized from a
// background poll loop to inline evaluation driven by the worker after
// every trade (Open Question resolved in SPEC_FULL.md §9).
type triggerPool struct {
	orders []*common.Order
}

func newTriggerPool() *triggerPool {
	return &triggerPool{}
}

func (p *triggerPool) add(o *common.Order) {
	p.orders = append(p.orders, o)
}

func (p *triggerPool) remove(id common.OrderID) (*common.Order, bool) {
	for i, o := range p.orders {
		if o.ID == id {
			p.orders = append(p.orders[:i], p.orders[i+1:]...)
			return o, true
		}
	}
	return nil, false
}

// ready reports whether the reference price satisfies o's trigger:
// bid stops trigger when reference >= trigger price; ask stops when
// reference <= trigger price (§4.3), including the boundary case of
// the reference price landing exactly on the trigger.
func ready(o *common.Order, ref decimal.Decimal) bool {
	if o.TriggerPrice == nil {
		return false
	}
	if o.Side == common.Bid {
		return ref.GreaterThanOrEqual(*o.TriggerPrice)
	}
	return ref.LessThanOrEqual(*o.TriggerPrice)
}

// popReady removes and returns the single most-eligible triggered
// order for ref, evaluated strictly by trigger price (closest to ref
// first) then by arrival time (§4.3). Returns nil once nothing is
// eligible. Callers loop popReady until nil so that triggering one
// order (which may move the reference price again via its own trades)
// re-evaluates the remaining pool before the next pop.
func (p *triggerPool) popReady(ref decimal.Decimal) *common.Order {
	var eligible []int
	for i, o := range p.orders {
		if ready(o, ref) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Slice(eligible, func(a, b int) bool {
		oa, ob := p.orders[eligible[a]], p.orders[eligible[b]]
		da := distance(oa, ref)
		db := distance(ob, ref)
		if !da.Equal(db) {
			return da.LessThan(db)
		}
		return oa.CreatedAt.Before(ob.CreatedAt)
	})
	idx := eligible[0]
	o := p.orders[idx]
	p.orders = append(p.orders[:idx], p.orders[idx+1:]...)
	return o
}

func distance(o *common.Order, ref decimal.Decimal) decimal.Decimal {
	return o.TriggerPrice.Sub(ref).Abs()
}
