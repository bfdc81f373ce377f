// Package matcher implements the single-order processing hot path:
// price-time matching for Limit/Market/Stop/StopLimit orders under
// GTC/IOC/FOK time-in-force policies (§4.3). It generalizes
// internal/engine/orderbook.go's Match/handleLimit/handleMarket crossing
// loop into one monomorphic match helper shared by every (type, TIF)
// combination, per Design Notes §9.
package matcher

import (
	"time"

	"matchcore/internal/common"
)

// Command is either a Place or a Cancel, the Matcher's only two inputs.
type Command interface {
	isCommand()
}

// PlaceCommand places a new order.
type PlaceCommand struct {
	Order common.Order
}

func (PlaceCommand) isCommand() {}

// CancelCommand cancels a resting order by id.
type CancelCommand struct {
	OrderID common.OrderID
}

func (CancelCommand) isCommand() {}

// ProcessOutcome bundles the result of processing one command: the
// trades produced, the taker's final status snapshot, and every maker
// order touched during the match (for event emission and depth
// refresh), per §4.3.
type ProcessOutcome struct {
	Trades        []common.Trade
	Taker         common.Order
	TouchedMakers []common.Order
	Rested        bool // true if the taker's remainder was added to the book
	Cancelled     *common.Order
	Triggered     []common.Order // Stop/StopLimit orders moved out of WaitingTrigger this step
}

func now() time.Time { return time.Now() }
