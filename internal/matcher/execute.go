package matcher

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// execute runs the shared match-against-opposite-side loop described in
// §4.3: "Each path shares a common helper that matches a taker against
// one opposite level." Limit, Market, and triggered Stop/StopLimit
// orders all funnel through here; the only per-(type,TIF) branching is
// in how the post-loop remainder is disposed of, kept in one place
// below rather than duplicated per type, per Design Notes §9's
// "one switch per command, then a monomorphic inner routine."
func (m *Matcher) execute(taker common.Order) (ProcessOutcome, error) {
	hasLimit := taker.Type == common.Limit || taker.Type == common.StopLimit
	effectiveTIF := taker.TimeInForce
	if taker.Type == common.Market && effectiveTIF == common.GTC {
		effectiveTIF = common.IOC
	}

	var limitPrice decimal.Decimal
	if hasLimit {
		limitPrice = *taker.LimitPrice
	}

	if effectiveTIF == common.FOK {
		if !m.Book.CheckFOKLiquidity(taker.Side, limitPrice, taker.Remaining, hasLimit) {
			taker.Status = common.Cancelled
			taker.RejectReason = common.RejectReasonFOKUnfillable
			taker.UpdatedAt = now()
			return ProcessOutcome{Taker: taker}, nil
		}
	}

	trades, touched := m.matchLoop(&taker, hasLimit, limitPrice)

	outcome := ProcessOutcome{
		Trades:        trades,
		TouchedMakers: touched,
	}

	switch {
	case taker.Remaining.IsZero():
		taker.Status = common.Filled
	case hasLimit && effectiveTIF == common.GTC:
		if err := m.Book.AddResting(&taker); err != nil {
			return ProcessOutcome{}, err
		}
		if len(trades) == 0 {
			taker.Status = common.New
		} else {
			taker.Status = common.PartiallyFilled
		}
		outcome.Rested = true
	default:
		if len(trades) == 0 {
			taker.Status = common.Cancelled
			taker.RejectReason = common.RejectReasonNoLiquidity
		} else {
			taker.Status = common.PartialFillCancelled
		}
	}
	taker.UpdatedAt = now()
	outcome.Taker = taker
	return outcome, nil
}

// matchLoop walks the opposite side of the book from best price
// inward, consuming resting orders head-first within each level (FIFO
// ties, §4.1/§4.3), until the taker is filled or the opposite best
// price no longer crosses the taker's bound.
func (m *Matcher) matchLoop(taker *common.Order, hasLimit bool, limitPrice decimal.Decimal) ([]common.Trade, []common.Order) {
	opposite := taker.Side.Opposite()
	var trades []common.Trade
	var touched []common.Order
	ts := now()

	for !taker.Remaining.IsZero() {
		level := m.Book.BestLevelMut(opposite)
		if level == nil {
			break
		}
		if hasLimit && !levelCrosses(taker.Side, limitPrice, level.Price) {
			break
		}

		for !taker.Remaining.IsZero() && !level.Empty() {
			maker := level.PeekFront()
			matchQty := decimal.Min(taker.Remaining, maker.Remaining)
			quoteQty := m.Instrument.Quote(matchQty, level.Price)

			taker.ApplyFill(matchQty, quoteQty, ts)
			maker.ApplyFill(matchQty, quoteQty, ts)

			trades = append(trades, common.Trade{
				ID:           common.NewTradeID(),
				InstrumentID: m.Instrument.ID,
				MakerOrderID: maker.ID,
				TakerOrderID: taker.ID,
				BaseAmount:   matchQty,
				QuoteAmount:  quoteQty,
				Price:        level.Price,
				CreatedAt:    ts,
			})
			m.SetReferencePrice(level.Price)

			if maker.Remaining.IsZero() {
				maker.Status = common.Filled
				popped := m.Book.PopFront(opposite, level)
				touched = append(touched, popped.Clone())
			} else {
				maker.Status = common.PartiallyFilled
				level.RefreshVolume()
				touched = append(touched, maker.Clone())
			}
		}
	}
	return trades, touched
}

// levelCrosses reports whether a resting order at levelPrice on the
// opposite side crosses a taker's bound on `side`: for a bid taker the
// ask must be at or below the limit; for an ask taker the bid must be
// at or above it.
func levelCrosses(side common.Side, limitPrice, levelPrice decimal.Decimal) bool {
	if side == common.Bid {
		return levelPrice.LessThanOrEqual(limitPrice)
	}
	return levelPrice.GreaterThanOrEqual(limitPrice)
}
