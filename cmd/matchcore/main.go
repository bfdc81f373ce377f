// Command matchcore is a demo wiring of the matching core: a Manager,
// an Event Bus, and a journal subscriber, registering one instrument
// and running a resting sell and a crossing buy through it. It is not
// a network server — wire framing and transport facades are explicit
// Non-goals (§1) — unlike the teacher's cmd/main.go, which wired a TCP
// listener in this same construction-order pattern (engine, then
// server, then block on ctx.Done()).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"matchcore/internal/common"
	"matchcore/internal/eventbus"
	"matchcore/internal/journal"
	"matchcore/internal/manager"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	bus := eventbus.New(256)
	jw := journal.Attach(bus, os.Stdout)
	defer jw.Close()

	mgr := manager.New(bus)

	btcusd := common.Instrument{ID: common.NewInstrumentID("BTC-USD"), Symbol: "BTC-USD", PriceScale: 2, BaseScale: 8}
	if err := mgr.RegisterInstrument(btcusd); err != nil {
		log.Fatal().Err(err).Msg("register instrument")
	}

	alice := common.NewAccountID("alice")
	bob := common.NewAccountID("bob")

	sellPrice := decimal.RequireFromString("50000.00")
	sell := common.Order{
		ID:           common.NewOrderID(),
		AccountID:    alice,
		InstrumentID: btcusd.ID,
		Side:         common.Ask,
		Type:         common.Limit,
		LimitPrice:   &sellPrice,
		BaseAmount:   decimal.RequireFromString("1.0"),
		TimeInForce:  common.GTC,
	}
	if _, err := mgr.Place(sell); err != nil {
		log.Fatal().Err(err).Msg("place sell")
	}

	buyPrice := decimal.RequireFromString("50000.00")
	buy := common.Order{
		ID:           common.NewOrderID(),
		AccountID:    bob,
		InstrumentID: btcusd.ID,
		Side:         common.Bid,
		Type:         common.Limit,
		LimitPrice:   &buyPrice,
		BaseAmount:   decimal.RequireFromString("0.4"),
		TimeInForce:  common.GTC,
	}
	outcome, err := mgr.Place(buy)
	if err != nil {
		log.Fatal().Err(err).Msg("place buy")
	}
	for _, trade := range outcome.Trades {
		log.Info().Str("trade", trade.String()).Msg("executed")
	}

	view, err := mgr.Depth(btcusd.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("depth snapshot")
	}
	log.Info().Int("bid_levels", len(view.Bids)).Int("ask_levels", len(view.Asks)).Msg("depth refreshed")

	select {
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
	}

	if err := mgr.Stop(); err != nil {
		log.Error().Err(err).Msg("manager stop")
	}
}
