package common

import "errors"

// Sentinel errors surfaced by the book, matcher, worker, and manager.
// Kept as comparable package errors in the teacher's style
// (internal/engine/orderbook.go's ErrNotEnoughLiquidity/ErrRejection),
// and returned unwrapped, so callers compare them with errors.Is.
var (
	ErrDuplicateOrderID           = errors.New("duplicate order id")
	ErrOrderNotFound              = errors.New("order not found")
	ErrNotEnoughLiquidity         = errors.New("not enough liquidity")
	ErrOrderbookHalted            = errors.New("orderbook halted")
	ErrInstrumentNotRegistered    = errors.New("instrument not registered")
	ErrInstrumentAlreadyRegistered = errors.New("instrument already registered")
	ErrEngineStopped              = errors.New("engine stopped")
	ErrTimeout                    = errors.New("command timed out")
	ErrFaulted                    = errors.New("instrument is faulted")
	ErrInvariantViolation         = errors.New("book invariant violation")
)
