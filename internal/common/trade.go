package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one execution between a resting maker and the taker
// that crossed it. Generalizes internal/common/trade.go's Party/
// CounterParty/MatchQty/Price shape to named Maker/Taker order ids with
// decimal amounts.
type Trade struct {
	ID           TradeID
	InstrumentID InstrumentID
	MakerOrderID OrderID
	TakerOrderID OrderID
	BaseAmount   decimal.Decimal
	QuoteAmount  decimal.Decimal
	Price        decimal.Decimal
	CreatedAt    time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade{id=%s instrument=%s maker=%s taker=%s base=%s quote=%s price=%s at=%s}",
		t.ID, t.InstrumentID, t.MakerOrderID, t.TakerOrderID,
		t.BaseAmount, t.QuoteAmount, t.Price, t.CreatedAt.Format(time.RFC3339Nano),
	)
}
