package common

import "github.com/shopspring/decimal"

// Instrument declares the fixed-point scale used for an instrument's
// price and base-quantity arithmetic, per Design Notes §9 ("price/
// quantity scales are declared per instrument at construction").
type Instrument struct {
	ID         InstrumentID
	Symbol     string
	PriceScale int32 // decimal places for price
	BaseScale  int32 // decimal places for base quantity
}

// RoundQuote applies the instrument's declared rounding rule to a raw
// base*price product: half-away-from-zero at PriceScale (decimal.Round's
// documented rounding rule), per Open Question 3 in SPEC_FULL.md §9.
func (in Instrument) RoundQuote(raw decimal.Decimal) decimal.Decimal {
	return raw.Round(in.PriceScale)
}

// Quote computes base*price rounded per RoundQuote.
func (in Instrument) Quote(base, price decimal.Decimal) decimal.Decimal {
	return in.RoundQuote(base.Mul(price))
}
