package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

func testInstrument() common.Instrument {
	return common.Instrument{
		ID:         common.NewInstrumentID("TEST-USD"),
		Symbol:     "TEST-USD",
		PriceScale: 2,
		BaseScale:  8,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func limitOrder(side common.Side, price, base string, tif common.TimeInForce) common.Order {
	p := dec(price)
	return common.Order{
		ID:           common.NewOrderID(),
		AccountID:    common.NewAccountID("acct"),
		InstrumentID: testInstrument().ID,
		Side:         side,
		Type:         common.Limit,
		LimitPrice:   &p,
		BaseAmount:   dec(base),
		TimeInForce:  tif,
	}
}

func marketOrder(side common.Side, base string, tif common.TimeInForce) common.Order {
	return common.Order{
		ID:           common.NewOrderID(),
		AccountID:    common.NewAccountID("acct"),
		InstrumentID: testInstrument().ID,
		Side:         side,
		Type:         common.Market,
		BaseAmount:   dec(base),
		TimeInForce:  tif,
	}
}

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	return New(testInstrument())
}

func TestLimit_RestsWhenNoCross(t *testing.T) {
	m := newMatcher(t)
	out, err := m.Process(PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1", common.GTC)})
	require.NoError(t, err)
	assert.True(t, out.Rested)
	assert.Equal(t, common.New, out.Taker.Status)
	assert.Empty(t, out.Trades)
}

func TestLimit_PriceTimePriority(t *testing.T) {
	m := newMatcher(t)

	first := limitOrder(common.Ask, "100.00", "1", common.GTC)
	second := limitOrder(common.Ask, "100.00", "1", common.GTC)
	_, err := m.Process(PlaceCommand{Order: first})
	require.NoError(t, err)
	_, err = m.Process(PlaceCommand{Order: second})
	require.NoError(t, err)

	taker := limitOrder(common.Bid, "100.00", "1", common.GTC)
	out, err := m.Process(PlaceCommand{Order: taker})
	require.NoError(t, err)

	require.Len(t, out.Trades, 1)
	assert.Equal(t, first.ID, out.Trades[0].MakerOrderID, "the earlier-arrived resting order at the same price must fill first")
}

func TestLimit_PartialFillThenRest(t *testing.T) {
	m := newMatcher(t)
	_, err := m.Process(PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1", common.GTC)})
	require.NoError(t, err)

	taker := limitOrder(common.Bid, "100.00", "3", common.GTC)
	out, err := m.Process(PlaceCommand{Order: taker})
	require.NoError(t, err)

	require.Len(t, out.Trades, 1)
	assert.True(t, out.Rested)
	assert.Equal(t, common.PartiallyFilled, out.Taker.Status)
	assert.True(t, out.Taker.Remaining.Equal(dec("2")))
	assert.True(t, out.Taker.CheckFillInvariant())
}

func TestMarket_OnEmptyBook_Cancelled(t *testing.T) {
	m := newMatcher(t)
	out, err := m.Process(PlaceCommand{Order: marketOrder(common.Bid, "1", common.GTC)})
	require.NoError(t, err)
	assert.Equal(t, common.Cancelled, out.Taker.Status)
	assert.Empty(t, out.Trades)
}

func TestIOC_RemainderCancelledNotRested(t *testing.T) {
	m := newMatcher(t)
	_, err := m.Process(PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1", common.GTC)})
	require.NoError(t, err)

	taker := limitOrder(common.Bid, "100.00", "3", common.IOC)
	out, err := m.Process(PlaceCommand{Order: taker})
	require.NoError(t, err)

	assert.False(t, out.Rested)
	assert.Equal(t, common.PartialFillCancelled, out.Taker.Status)
	assert.True(t, out.Taker.Remaining.Equal(dec("2")))
}

func TestFOK_UnfillableCancelsWithNoTrades(t *testing.T) {
	m := newMatcher(t)
	_, err := m.Process(PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1", common.GTC)})
	require.NoError(t, err)

	taker := limitOrder(common.Bid, "100.00", "5", common.FOK)
	out, err := m.Process(PlaceCommand{Order: taker})
	require.NoError(t, err)

	assert.Empty(t, out.Trades, "FOK must not produce partial trades when liquidity is insufficient")
	assert.Equal(t, common.Cancelled, out.Taker.Status)
	level := m.Book.BestLevel(common.Ask)
	require.NotNil(t, level, "the resting ask must be untouched by a rejected FOK taker")
	assert.True(t, level.TotalVolume().Equal(dec("1")))
}

func TestFOK_ExactMatchFills(t *testing.T) {
	m := newMatcher(t)
	_, err := m.Process(PlaceCommand{Order: limitOrder(common.Ask, "100.00", "2", common.GTC)})
	require.NoError(t, err)

	taker := limitOrder(common.Bid, "100.00", "2", common.FOK)
	out, err := m.Process(PlaceCommand{Order: taker})
	require.NoError(t, err)

	require.Len(t, out.Trades, 1)
	assert.Equal(t, common.Filled, out.Taker.Status)
}

func TestCancel_RestingOrder(t *testing.T) {
	m := newMatcher(t)
	order := limitOrder(common.Bid, "99.00", "1", common.GTC)
	_, err := m.Process(PlaceCommand{Order: order})
	require.NoError(t, err)

	out, err := m.Process(CancelCommand{OrderID: order.ID})
	require.NoError(t, err)
	require.NotNil(t, out.Cancelled)
	assert.Equal(t, common.Cancelled, out.Cancelled.Status)

	_, err = m.Process(CancelCommand{OrderID: order.ID})
	assert.Error(t, err, "cancelling an already-removed order must fail")
}

func TestStopOrder_WaitsThenTriggersOnReferencePrice(t *testing.T) {
	m := newMatcher(t)

	// A resting ask far from any trigger, for the stop to execute against
	// once it converts to a market buy.
	_, err := m.Process(PlaceCommand{Order: limitOrder(common.Ask, "105.00", "1", common.GTC)})
	require.NoError(t, err)

	trigger := dec("100.00")
	stop := common.Order{
		ID:           common.NewOrderID(),
		AccountID:    common.NewAccountID("acct"),
		InstrumentID: testInstrument().ID,
		Side:         common.Bid,
		Type:         common.Stop,
		TriggerPrice: &trigger,
		BaseAmount:   dec("1"),
		TimeInForce:  common.GTC,
	}
	out, err := m.Process(PlaceCommand{Order: stop})
	require.NoError(t, err)
	assert.Equal(t, common.WaitingTrigger, out.Taker.Status, "no trade has set a reference price yet")

	assert.Empty(t, m.EvaluateTriggers(), "nothing should fire before the reference price reaches the trigger")

	// A separate trade at 100.00 moves the reference price up to the
	// stop's trigger.
	_, err = m.Process(PlaceCommand{Order: limitOrder(common.Ask, "100.00", "1", common.GTC)})
	require.NoError(t, err)
	_, err = m.Process(PlaceCommand{Order: limitOrder(common.Bid, "100.00", "1", common.GTC)})
	require.NoError(t, err)

	outcomes := m.EvaluateTriggers()
	require.Len(t, outcomes, 1, "the stop must fire now that the reference price has reached its trigger")
	assert.Equal(t, common.Filled, outcomes[0].Taker.Status)
	require.Len(t, outcomes[0].Trades, 1)
	assert.True(t, outcomes[0].Trades[0].Price.Equal(dec("105.00")), "the triggered market buy executes against the resting ask")
}

func TestRejectsZeroAmount(t *testing.T) {
	m := newMatcher(t)
	order := limitOrder(common.Bid, "100.00", "0", common.GTC)
	out, err := m.Process(PlaceCommand{Order: order})
	require.NoError(t, err)
	assert.Equal(t, common.Rejected, out.Taker.Status)
	assert.Equal(t, common.RejectReasonZeroAmount, out.Taker.RejectReason)
}

func TestRejectsUnknownInstrument(t *testing.T) {
	m := newMatcher(t)
	order := limitOrder(common.Bid, "100.00", "1", common.GTC)
	order.InstrumentID = common.NewInstrumentID("OTHER")
	out, err := m.Process(PlaceCommand{Order: order})
	require.NoError(t, err)
	assert.Equal(t, common.Rejected, out.Taker.Status)
	assert.Equal(t, common.RejectReasonUnknownInstrument, out.Taker.RejectReason)
}
