package matcher

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/common"
)

// Matcher owns one instrument's book and trigger pool and runs the
// matching algorithms against it. It is only ever driven by the
// instrument's single owning worker goroutine, so it holds no locks
// (§5).
type Matcher struct {
	Instrument common.Instrument
	Book       *book.Book
	triggers   *triggerPool

	// referencePrice drives trigger evaluation; defaults to last-trade
	// price per the Open Question resolved in SPEC_FULL.md §9.
	referencePrice     decimal.Decimal
	haveReferencePrice bool

	// ReferencePriceOracle, if set, overrides the default last-trade
	// reference price source, per §6's "Reference-price oracle"
	// external interface. Consulted when a Stop/StopLimit order arrives
	// and before each trigger-pool evaluation pass.
	ReferencePriceOracle func() (decimal.Decimal, bool)
}

// New builds a Matcher for a freshly constructed, empty book.
func New(instrument common.Instrument) *Matcher {
	return &Matcher{
		Instrument: instrument,
		Book:       book.New(instrument.ID),
		triggers:   newTriggerPool(),
	}
}

// Process is the Matcher's single entry point (§4.3).
func (m *Matcher) Process(cmd Command) (ProcessOutcome, error) {
	switch c := cmd.(type) {
	case PlaceCommand:
		return m.processPlace(c.Order)
	case CancelCommand:
		return m.processCancel(c.OrderID)
	default:
		return ProcessOutcome{}, common.ErrInvariantViolation
	}
}

func (m *Matcher) processCancel(id common.OrderID) (ProcessOutcome, error) {
	if removed, ok := m.triggers.remove(id); ok {
		removed.Status = common.Cancelled
		removed.UpdatedAt = now()
		return ProcessOutcome{Cancelled: removed}, nil
	}

	removed, err := m.Book.Cancel(id)
	if err != nil {
		return ProcessOutcome{}, err
	}
	removed.Status = common.Cancelled
	removed.UpdatedAt = now()
	return ProcessOutcome{Cancelled: removed}, nil
}

func (m *Matcher) processPlace(order common.Order) (ProcessOutcome, error) {
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt
	order.Remaining = order.BaseAmount

	reason, ok := validate(order)
	if ok && order.InstrumentID != m.Instrument.ID {
		reason, ok = common.RejectReasonUnknownInstrument, false
	}
	if !ok {
		order.Status = common.Rejected
		order.RejectReason = reason
		return ProcessOutcome{Taker: order}, nil
	}

	if order.Type == common.Stop || order.Type == common.StopLimit {
		if m.triggerReached(order) {
			return m.execute(rewriteTriggered(order))
		}
		order.Status = common.WaitingTrigger
		m.triggers.add(&order)
		return ProcessOutcome{Taker: order}, nil
	}

	return m.execute(order)
}

// validate applies the edge-case rejections of §4.3.
func validate(o common.Order) (common.RejectReason, bool) {
	if o.BaseAmount.IsZero() || o.BaseAmount.IsNegative() {
		return common.RejectReasonZeroAmount, false
	}
	if (o.Type == common.Limit || o.Type == common.StopLimit) && o.LimitPrice == nil {
		return common.RejectReasonMissingLimitPrice, false
	}
	if o.LimitPrice != nil && o.LimitPrice.IsNegative() {
		return common.RejectReasonNegativePrice, false
	}
	if (o.Type == common.Stop || o.Type == common.StopLimit) && o.TriggerPrice == nil {
		return common.RejectReasonMissingTriggerPrice, false
	}
	if o.TriggerPrice != nil && o.TriggerPrice.IsNegative() {
		return common.RejectReasonNegativePrice, false
	}
	return common.RejectReasonNone, true
}

// triggerReached reports whether the instrument's current reference
// price already satisfies the order's trigger on intake (§4.3: bid
// stops trigger when reference >= trigger; ask stops when reference <=
// trigger).
func (m *Matcher) triggerReached(o common.Order) bool {
	ref, ok := m.currentReferencePrice()
	if !ok || o.TriggerPrice == nil {
		return false
	}
	if o.Side == common.Bid {
		return ref.GreaterThanOrEqual(*o.TriggerPrice)
	}
	return ref.LessThanOrEqual(*o.TriggerPrice)
}

// rewriteTriggered converts a triggered Stop into a Market order, and a
// triggered StopLimit into a Limit order at its own limit price, per
// §4.3.
func rewriteTriggered(o common.Order) common.Order {
	switch o.Type {
	case common.Stop:
		o.Type = common.Market
		o.TimeInForce = common.IOC
	case common.StopLimit:
		o.Type = common.Limit
	}
	return o
}

func (m *Matcher) currentReferencePrice() (decimal.Decimal, bool) {
	if m.ReferencePriceOracle != nil {
		return m.ReferencePriceOracle()
	}
	return m.referencePrice, m.haveReferencePrice
}

// SetReferencePrice overrides the cached last-trade reference price.
// Exposed for tests and for a collaborator-supplied oracle that still
// wants the worker to cache between calls.
func (m *Matcher) SetReferencePrice(p decimal.Decimal) {
	m.referencePrice = p
	m.haveReferencePrice = true
}

// ReferencePrice returns the current reference price, if any trade has
// occurred yet.
func (m *Matcher) ReferencePrice() (decimal.Decimal, bool) {
	return m.currentReferencePrice()
}

// EvaluateTriggers re-processes every trigger-pool order whose condition
// the current reference price now satisfies, in trigger-price-then-
// arrival order (§4.3), inline within the current step (Open Question
// resolved: inline, not requeued through the Manager). It returns the
// outcomes of each triggered re-processing, in evaluation order.
func (m *Matcher) EvaluateTriggers() []ProcessOutcome {
	var outcomes []ProcessOutcome
	for {
		ref, ok := m.currentReferencePrice()
		if !ok {
			break
		}
		triggered := m.triggers.popReady(ref)
		if triggered == nil {
			break
		}
		outcome, _ := m.execute(rewriteTriggered(*triggered))
		outcome.Triggered = append(outcome.Triggered, outcome.Taker)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
