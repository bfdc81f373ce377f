package common

// Side is the direction of an order.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// OrderType selects the matching algorithm the Matcher runs.
type OrderType int

const (
	Limit OrderType = iota
	Market
	Stop
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case Stop:
		return "stop"
	case StopLimit:
		return "stop_limit"
	default:
		return "unknown"
	}
}

// TimeInForce controls how an unfilled remainder is handled.
type TimeInForce int

const (
	GTC TimeInForce = iota
	IOC
	FOK
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "unknown"
	}
}

// OrderStatus is a node in the order lifecycle DAG.
type OrderStatus int

const (
	PendingNew OrderStatus = iota
	New
	PartiallyFilled
	Filled
	Cancelled
	PartialFillCancelled
	Rejected
	WaitingTrigger
)

func (s OrderStatus) String() string {
	switch s {
	case PendingNew:
		return "pending_new"
	case New:
		return "new"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case PartialFillCancelled:
		return "partial_fill_cancelled"
	case Rejected:
		return "rejected"
	case WaitingTrigger:
		return "waiting_trigger"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status ends the order's lifecycle.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case Filled, Cancelled, PartialFillCancelled, Rejected:
		return true
	default:
		return false
	}
}

// RejectReason is a closed set of reasons an order never entered, or was
// immediately removed from, the book. Modeled on the sentinel-error
// idiom other_examples/VictorVVedtion-perp-dex uses for its IOC/FOK/
// post-only rejections, generalized into a comparable enum so it can be
// carried on events as well as returned as an error.
type RejectReason int

const (
	RejectReasonNone RejectReason = iota
	RejectReasonZeroAmount
	RejectReasonNegativePrice
	RejectReasonMissingLimitPrice
	RejectReasonMissingTriggerPrice
	RejectReasonUnknownInstrument
	RejectReasonOrderbookHalted
	RejectReasonFOKUnfillable
	RejectReasonNoLiquidity
)

func (r RejectReason) String() string {
	switch r {
	case RejectReasonNone:
		return "none"
	case RejectReasonZeroAmount:
		return "zero_amount"
	case RejectReasonNegativePrice:
		return "negative_price"
	case RejectReasonMissingLimitPrice:
		return "missing_limit_price"
	case RejectReasonMissingTriggerPrice:
		return "missing_trigger_price"
	case RejectReasonUnknownInstrument:
		return "unknown_instrument"
	case RejectReasonOrderbookHalted:
		return "orderbook_halted"
	case RejectReasonFOKUnfillable:
		return "fok_unfillable"
	case RejectReasonNoLiquidity:
		return "no_liquidity"
	default:
		return "unknown"
	}
}
