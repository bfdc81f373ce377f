package worker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
	"matchcore/internal/eventbus"
	"matchcore/internal/matcher"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testInstrument() common.Instrument {
	return common.Instrument{ID: common.NewInstrumentID("TEST"), Symbol: "TEST", PriceScale: 2, BaseScale: 8}
}

func limitOrder(side common.Side, price, base string) common.Order {
	p := dec(price)
	return common.Order{
		ID:           common.NewOrderID(),
		AccountID:    common.NewAccountID("acct"),
		InstrumentID: testInstrument().ID,
		Side:         side,
		Type:         common.Limit,
		LimitPrice:   &p,
		BaseAmount:   dec(base),
		TimeInForce:  common.GTC,
	}
}

func TestWorker_SubmitMatchesAndPublishesEvents(t *testing.T) {
	bus := eventbus.New(64)
	sub := bus.Subscribe()
	defer sub.Close()

	w := New(testInstrument(), bus)
	w.Start()
	defer w.Stop()

	_, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1")})
	require.NoError(t, err)

	out, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1")})
	require.NoError(t, err)
	require.Len(t, out.Trades, 1)

	sawTrade := false
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case e := <-sub.Events():
			if e.Kind == eventbus.TradeExecuted {
				sawTrade = true
				break drain
			}
		case <-deadline:
			break drain
		}
	}
	assert.True(t, sawTrade, "a fill must publish a TradeExecuted event")
}

func TestWorker_HaltRejectsCommandsUntilResume(t *testing.T) {
	bus := eventbus.New(64)
	w := New(testInstrument(), bus)
	w.Start()
	defer w.Stop()

	require.NoError(t, w.Halt())
	assert.True(t, w.Halted())

	_, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1")})
	assert.ErrorIs(t, err, common.ErrOrderbookHalted)

	require.NoError(t, w.Resume())
	assert.False(t, w.Halted())

	_, err = w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1")})
	assert.NoError(t, err)
}

func TestWorker_FillEmitsTradeExecutedBeforeOrderMatched(t *testing.T) {
	bus := eventbus.New(64)
	sub := bus.Subscribe()
	defer sub.Close()

	w := New(testInstrument(), bus)
	w.Start()
	defer w.Stop()

	_, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1")})
	require.NoError(t, err)

	out, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1")})
	require.NoError(t, err)
	require.Len(t, out.Trades, 1)

	var kinds []eventbus.Kind
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case e := <-sub.Events():
			kinds = append(kinds, e.Kind)
			if e.Kind == eventbus.OrderStatusChanged && len(kinds) > 3 {
				break drain
			}
		case <-deadline:
			break drain
		}
	}

	tradeIdx, matchedIdx := -1, -1
	for i, k := range kinds {
		if k == eventbus.TradeExecuted && tradeIdx == -1 {
			tradeIdx = i
		}
		if k == eventbus.OrderMatched && matchedIdx == -1 {
			matchedIdx = i
		}
	}
	require.NotEqual(t, -1, tradeIdx, "expected a TradeExecuted event")
	require.NotEqual(t, -1, matchedIdx, "expected an OrderMatched event")
	assert.Less(t, tradeIdx, matchedIdx, "TradeExecuted must precede OrderMatched per §4.7")
}

func TestWorker_HaltStillAllowsCancel(t *testing.T) {
	bus := eventbus.New(64)
	w := New(testInstrument(), bus)
	w.Start()
	defer w.Stop()

	order := limitOrder(common.Bid, "100.00", "1")
	_, err := w.Submit(matcher.PlaceCommand{Order: order})
	require.NoError(t, err)

	require.NoError(t, w.Halt())

	out, err := w.Submit(matcher.CancelCommand{OrderID: order.ID})
	require.NoError(t, err, "cancel must remain allowed while the book is halted")
	require.NotNil(t, out.Cancelled)
	assert.Equal(t, order.ID, out.Cancelled.ID)
}

func TestWorker_DepthSnapshotReflectsRestingOrders(t *testing.T) {
	bus := eventbus.New(64)
	w := New(testInstrument(), bus)
	w.Start()
	defer w.Stop()

	_, err := w.Submit(matcher.PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1")})
	require.NoError(t, err)

	view := w.DepthSnapshot()
	require.Len(t, view.Bids, 1)
	assert.True(t, view.Bids[0].Price.Equal(dec("100.00")))
}
