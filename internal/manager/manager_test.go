package manager

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
	"matchcore/internal/eventbus"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testInstrument(symbol string) common.Instrument {
	return common.Instrument{ID: common.NewInstrumentID(symbol), Symbol: symbol, PriceScale: 2, BaseScale: 8}
}

func limitOrder(instID common.InstrumentID, side common.Side, price, base string) common.Order {
	p := dec(price)
	return common.Order{
		ID:           common.NewOrderID(),
		AccountID:    common.NewAccountID("acct"),
		InstrumentID: instID,
		Side:         side,
		Type:         common.Limit,
		LimitPrice:   &p,
		BaseAmount:   dec(base),
		TimeInForce:  common.GTC,
	}
}

func TestManager_RoutesToCorrectInstrumentWorker(t *testing.T) {
	mgr := New(eventbus.New(16))
	btc := testInstrument("BTC-USD")
	eth := testInstrument("ETH-USD")
	require.NoError(t, mgr.RegisterInstrument(btc))
	require.NoError(t, mgr.RegisterInstrument(eth))
	defer mgr.Stop()

	_, err := mgr.Place(limitOrder(btc.ID, common.Ask, "100.00", "1"))
	require.NoError(t, err)

	out, err := mgr.Place(limitOrder(btc.ID, common.Bid, "100.00", "1"))
	require.NoError(t, err)
	assert.Len(t, out.Trades, 1, "a BTC order must match against BTC liquidity only")

	ethView, err := mgr.Depth(eth.ID)
	require.NoError(t, err)
	assert.Empty(t, ethView.Bids, "the unrelated ETH book must be untouched")
}

func TestManager_UnregisteredInstrumentErrors(t *testing.T) {
	mgr := New(eventbus.New(16))
	defer mgr.Stop()

	_, err := mgr.Place(limitOrder(common.NewInstrumentID("NOPE"), common.Bid, "100.00", "1"))
	assert.ErrorIs(t, err, common.ErrInstrumentNotRegistered)
}

func TestManager_DuplicateRegistrationRejected(t *testing.T) {
	mgr := New(eventbus.New(16))
	inst := testInstrument("DUP-USD")
	require.NoError(t, mgr.RegisterInstrument(inst))
	defer mgr.Stop()

	assert.ErrorIs(t, mgr.RegisterInstrument(inst), common.ErrInstrumentAlreadyRegistered)
}

func TestManager_HaltAndResumeRoutedByInstrument(t *testing.T) {
	mgr := New(eventbus.New(16))
	inst := testInstrument("HALT-USD")
	require.NoError(t, mgr.RegisterInstrument(inst))
	defer mgr.Stop()

	require.NoError(t, mgr.Halt(inst.ID))
	registered, halted := mgr.Status(inst.ID)
	assert.True(t, registered)
	assert.True(t, halted)

	_, err := mgr.Place(limitOrder(inst.ID, common.Bid, "100.00", "1"))
	assert.ErrorIs(t, err, common.ErrOrderbookHalted)

	require.NoError(t, mgr.Resume(inst.ID))
	_, halted = mgr.Status(inst.ID)
	assert.False(t, halted)
}
