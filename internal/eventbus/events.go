// Package eventbus is the non-blocking publish/subscribe fan-out for
// everything a worker step produces (§4.7), generalized from the
// teacher's `Server.ReportTrade`/`ReportError` callback-to-one-client
// shape (internal/net/server.go) into a publish-to-many-subscribers
// model, since nothing downstream of the matching core is a captive TCP
// client anymore.
package eventbus

import (
	"time"

	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// Kind names every event the bus carries (§4.7).
type Kind int

const (
	OrderAccepted Kind = iota
	OrderRejected
	OrderAdded
	OrderMatched
	TradeExecuted
	OrderCancelled
	OrderStatusChanged
	DepthUpdated
	TriggerFired
	BookHalted
	BookResumed
	SubscriberLagged
)

func (k Kind) String() string {
	switch k {
	case OrderAccepted:
		return "OrderAccepted"
	case OrderRejected:
		return "OrderRejected"
	case OrderAdded:
		return "OrderAdded"
	case OrderMatched:
		return "OrderMatched"
	case TradeExecuted:
		return "TradeExecuted"
	case OrderCancelled:
		return "OrderCancelled"
	case OrderStatusChanged:
		return "OrderStatusChanged"
	case DepthUpdated:
		return "DepthUpdated"
	case TriggerFired:
		return "TriggerFired"
	case BookHalted:
		return "BookHalted"
	case BookResumed:
		return "BookResumed"
	case SubscriberLagged:
		return "SubscriberLagged"
	default:
		return "Unknown"
	}
}

// Event is one published record. Sequence is monotonic per instrument,
// assigned by the bus at publish time (§4.7's ordering invariant);
// every other field is payload, with only the fields relevant to Kind
// populated.
type Event struct {
	Sequence     uint64
	InstrumentID common.InstrumentID
	Kind         Kind
	Timestamp    time.Time

	Order        *common.Order
	Trade        *common.Trade
	RejectReason common.RejectReason
	DepthBids    int
	DepthAsks    int

	// LaggedCount is only set on a SubscriberLagged event: the running
	// total of buffered events (earlier lag markers included) dropped for
	// that subscriber since it subscribed.
	LaggedCount uint64

	// ReferencePrice is set on TradeExecuted events to the trade's
	// price; TriggerFired events leave it zero.
	ReferencePrice decimal.Decimal
}
