// Package common holds the identifiers, order and trade entities, and
// enumerations shared across the matching core.
package common

import "github.com/google/uuid"

// OrderID uniquely identifies an order. It is a distinct type over
// uuid.UUID so that order, trade, account, and instrument ids can never
// be assigned to one another without an explicit conversion.
type OrderID uuid.UUID

// TradeID uniquely identifies a trade.
type TradeID uuid.UUID

// AccountID identifies the owner of an order.
type AccountID uuid.UUID

// InstrumentID identifies the market an order belongs to.
type InstrumentID uuid.UUID

func (id OrderID) String() string      { return uuid.UUID(id).String() }
func (id TradeID) String() string      { return uuid.UUID(id).String() }
func (id AccountID) String() string    { return uuid.UUID(id).String() }
func (id InstrumentID) String() string { return uuid.UUID(id).String() }

// MarshalText renders each id as its textual UUID form, so they encode
// as JSON strings rather than byte arrays.
func (id OrderID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id TradeID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id AccountID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id InstrumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *OrderID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = OrderID(u)
	return nil
}

func (id *TradeID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TradeID(u)
	return nil
}

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AccountID(u)
	return nil
}

func (id *InstrumentID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = InstrumentID(u)
	return nil
}

// NewOrderID mints a fresh random order id.
func NewOrderID() OrderID { return OrderID(uuid.New()) }

// NewTradeID mints a fresh random trade id.
func NewTradeID() TradeID { return TradeID(uuid.New()) }

// ParseInstrumentID parses a textual instrument id, e.g. a ticker-derived
// namespace uuid, into an InstrumentID.
func ParseInstrumentID(s string) (InstrumentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InstrumentID{}, err
	}
	return InstrumentID(id), nil
}

// NewInstrumentID derives a deterministic instrument id from a symbol,
// so callers can refer to instruments by ticker without keeping their
// own id table.
func NewInstrumentID(symbol string) InstrumentID {
	return InstrumentID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(symbol)))
}

// NewAccountID derives a deterministic account id from an external
// account reference.
func NewAccountID(ref string) AccountID {
	return AccountID(uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:"+ref)))
}

var (
	// ZeroOrderID is the zero-value order id, never assigned to a real order.
	ZeroOrderID OrderID
)
