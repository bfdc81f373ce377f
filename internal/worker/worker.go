// Package worker runs one instrument's matching engine on a single
// goroutine (§4.5 C7 Engine Worker), generalizing the teacher's
// `WorkerPool.Setup`/`worker` (internal/worker.go: a `*tomb.Tomb`-
// supervised pool of short-lived task handlers reading off one shared
// channel) from a pool of interchangeable workers into one long-lived
// worker per instrument, since the book itself is the thing that must
// never be touched from two goroutines at once (§5).
package worker

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
	"matchcore/internal/depth"
	"matchcore/internal/eventbus"
	"matchcore/internal/matcher"
)

const defaultCommandBuffer = 1024
const defaultDepthLevels = 25

// request is one command plus its reply channel, submitted across the
// goroutine boundary onto the worker's single command channel.
type request struct {
	cmd     matcher.Command
	control controlKind
	reply   chan response
}

type response struct {
	outcome matcher.ProcessOutcome
	err     error
}

type controlKind int

const (
	controlNone controlKind = iota
	controlHalt
	controlResume
)

// Worker owns one instrument's Matcher, depth tracker, and halted
// state, and is the only goroutine ever allowed to touch them (§5: "no
// locks on the hot path").
type Worker struct {
	InstrumentID common.InstrumentID

	matcher *matcher.Matcher
	depth   *depth.Tracker
	bus     *eventbus.Bus

	commands chan request
	t        tomb.Tomb

	halted      atomic.Bool
	depthCached atomic.Value // depth.View
}

// Option configures a Worker at construction time. The teacher has no
// config file or env parsing of its own (`cmd/main.go` hardcodes its
// listen address); construction-time functional options are this
// repo's configuration surface instead of inventing an external layer
// the teacher never had.
type Option func(*options)

type options struct {
	commandBuffer int
	depthLevels   int
}

// WithCommandBuffer overrides the worker's bounded command channel size.
func WithCommandBuffer(n int) Option {
	return func(o *options) { o.commandBuffer = n }
}

// WithDepthLevels overrides how many price levels per side the depth
// tracker retains.
func WithDepthLevels(n int) Option {
	return func(o *options) { o.depthLevels = n }
}

// New constructs a stopped Worker for instrument; call Start to begin
// serving commands.
func New(instrument common.Instrument, bus *eventbus.Bus, opts ...Option) *Worker {
	o := options{commandBuffer: defaultCommandBuffer, depthLevels: defaultDepthLevels}
	for _, apply := range opts {
		apply(&o)
	}
	return &Worker{
		InstrumentID: instrument.ID,
		matcher:      matcher.New(instrument),
		depth:        depth.New(instrument.ID, o.depthLevels),
		bus:          bus,
		commands:     make(chan request, o.commandBuffer),
	}
}

// Start launches the worker's run loop under t.Go, per the teacher's
// `t.Go(func() error { pool.Setup(t, work); return nil })` idiom.
func (w *Worker) Start() {
	w.t.Go(func() error {
		return w.run()
	})
}

// Stop requests a cooperative shutdown and waits for the loop to exit.
func (w *Worker) Stop() error {
	w.t.Kill(nil)
	return w.t.Wait()
}

func (w *Worker) run() error {
	log.Info().Str("instrument", w.InstrumentID.String()).Msg("worker starting")
	for {
		select {
		case <-w.t.Dying():
			log.Info().Str("instrument", w.InstrumentID.String()).Msg("worker stopping")
			return nil
		case req := <-w.commands:
			w.handle(req)
		}
	}
}

func (w *Worker) handle(req request) {
	if req.control != controlNone {
		w.handleControl(req)
		return
	}

	if _, isPlace := req.cmd.(matcher.PlaceCommand); isPlace && w.halted.Load() {
		req.reply <- response{err: common.ErrOrderbookHalted}
		return
	}

	outcome, err := w.matcher.Process(req.cmd)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	w.publish(outcome)

	for _, triggeredOutcome := range w.matcher.EvaluateTriggers() {
		w.publish(triggeredOutcome)
	}

	w.refreshDepth()
	req.reply <- response{outcome: outcome}
}

func (w *Worker) handleControl(req request) {
	switch req.control {
	case controlHalt:
		w.halted.Store(true)
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.BookHalted,
			Timestamp:    time.Now(),
		})
	case controlResume:
		w.halted.Store(false)
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.BookResumed,
			Timestamp:    time.Now(),
		})
	}
	req.reply <- response{}
}

// refreshDepth rebuilds the depth snapshot from the book and publishes
// a DepthUpdated event, kept in the same worker step as the mutation
// that caused it, per §4.4's coherence invariant.
func (w *Worker) refreshDepth() {
	view := w.depth.Refresh(w.matcher.Book, time.Now())
	w.depthCached.Store(view)
	w.bus.Publish(eventbus.Event{
		InstrumentID: w.InstrumentID,
		Kind:         eventbus.DepthUpdated,
		Timestamp:    view.Timestamp,
		DepthBids:    len(view.Bids),
		DepthAsks:    len(view.Asks),
	})
}

// publish emits the ordered sequence of events an outcome implies,
// per §4.7. A rejected order yields only OrderRejected, and a cancel
// outcome only OrderCancelled. Otherwise: OrderAccepted, then one
// TradeExecuted per trade, then OrderMatched and OrderStatusChanged for
// each touched maker, then OrderMatched for the taker if it traded,
// then OrderAdded (rested) or OrderStatusChanged for the taker, then
// TriggerFired for each triggered order.
func (w *Worker) publish(outcome matcher.ProcessOutcome) {
	now := time.Now()

	if outcome.Taker.Status == common.Rejected {
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderRejected,
			Timestamp:    now,
			Order:        orderPtr(outcome.Taker),
			RejectReason: outcome.Taker.RejectReason,
		})
		return
	}

	if outcome.Cancelled != nil {
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderCancelled,
			Timestamp:    now,
			Order:        orderPtr(*outcome.Cancelled),
		})
		return
	}

	w.bus.Publish(eventbus.Event{
		InstrumentID: w.InstrumentID,
		Kind:         eventbus.OrderAccepted,
		Timestamp:    now,
		Order:        orderPtr(outcome.Taker),
	})

	for i := range outcome.Trades {
		trade := outcome.Trades[i]
		w.bus.Publish(eventbus.Event{
			InstrumentID:   w.InstrumentID,
			Kind:           eventbus.TradeExecuted,
			Timestamp:      now,
			Trade:          &trade,
			ReferencePrice: trade.Price,
		})
	}

	for i := range outcome.TouchedMakers {
		maker := outcome.TouchedMakers[i]
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderMatched,
			Timestamp:    now,
			Order:        &maker,
		})
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderStatusChanged,
			Timestamp:    now,
			Order:        &maker,
		})
	}

	if len(outcome.Trades) > 0 {
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderMatched,
			Timestamp:    now,
			Order:        orderPtr(outcome.Taker),
		})
	}

	if outcome.Rested {
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderAdded,
			Timestamp:    now,
			Order:        orderPtr(outcome.Taker),
		})
	} else if outcome.Taker.Status != common.New {
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.OrderStatusChanged,
			Timestamp:    now,
			Order:        orderPtr(outcome.Taker),
		})
	}

	for i := range outcome.Triggered {
		triggered := outcome.Triggered[i]
		w.bus.Publish(eventbus.Event{
			InstrumentID: w.InstrumentID,
			Kind:         eventbus.TriggerFired,
			Timestamp:    now,
			Order:        &triggered,
		})
	}
}

func orderPtr(o common.Order) *common.Order { return &o }

// Submit places or cancels, blocking until the worker has processed the
// command. Safe to call concurrently from many goroutines; submission
// itself only ever touches the channel, never the matcher state.
func (w *Worker) Submit(cmd matcher.Command) (matcher.ProcessOutcome, error) {
	reply := make(chan response, 1)
	select {
	case w.commands <- request{cmd: cmd, reply: reply}:
	case <-w.t.Dying():
		return matcher.ProcessOutcome{}, common.ErrEngineStopped
	}
	r := <-reply
	return r.outcome, r.err
}

// Halt stops the worker from accepting new Place commands until Resume
// is called; Cancel remains allowed while halted (§4.5).
func (w *Worker) Halt() error {
	return w.control(controlHalt)
}

// Resume reverses Halt.
func (w *Worker) Resume() error {
	return w.control(controlResume)
}

func (w *Worker) control(kind controlKind) error {
	reply := make(chan response, 1)
	select {
	case w.commands <- request{control: kind, reply: reply}:
	case <-w.t.Dying():
		return common.ErrEngineStopped
	}
	r := <-reply
	return r.err
}

// Halted reports the worker's halted state.
func (w *Worker) Halted() bool { return w.halted.Load() }

// DepthSnapshot returns the worker's most recently published depth
// view. Safe to call concurrently with the worker goroutine: it reads
// the cached atomic.Value rather than the tracker's own unsynchronized
// state.
func (w *Worker) DepthSnapshot() depth.View {
	if v, ok := w.depthCached.Load().(depth.View); ok {
		return v
	}
	return depth.View{InstrumentID: w.InstrumentID}
}
