// Package backtest replays historical bars through a strategy and produces
// simulated trades, an equity curve, and performance statistics.
//
// One Engine may serve many concurrent runs: all mutable state lives in the
// per-run struct, and the collaborators the engine shares (bar source, fee
// schedule, matcher) are read-only.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/fees"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

// BarEvent is handed to the observer after each bar completes: the bar, the
// orders that reached a final status on it, and the equity snapshot. The
// callback is synchronous; there is no event bus.
type BarEvent struct {
	Bar      market.Bar
	Orders   []market.Order
	Snapshot sim.EquitySnapshot
}

// Engine orchestrates backtest runs.
type Engine struct {
	source   market.BarSource
	schedule *fees.Schedule
	log      *zap.Logger
	onBar    func(BarEvent)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a zap logger. The default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver attaches a synchronous per-bar callback.
func WithObserver(fn func(BarEvent)) Option {
	return func(e *Engine) { e.onBar = fn }
}

// New creates an engine reading bars from source and pricing trades with
// schedule.
func New(source market.BarSource, schedule *fees.Schedule, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		schedule: schedule,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the private state of one backtest. Everything here is owned by a
// single goroutine for the duration of the run.
type run struct {
	req     Request
	runID   string
	state   State
	matcher sim.Matcher
	book    *sim.Book
	history *indicators.History

	pending []market.Order
	trades  []market.Order
	curve   []sim.EquitySnapshot

	orderSeq  int
	totalFees decimal.Decimal
}

// Run executes the backtest and always returns a result object; the error
// return is non-nil only for pre-run input validation. Collaborator
// failures, data problems, and cancellation all surface as a FAILED result
// carrying whatever history accumulated before the failure.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	r := &run{
		req:       req,
		runID:     id.New(),
		state:     StateInitializing,
		matcher:   sim.Matcher{SlippageRate: req.SlippageRate},
		book:      sim.NewBook(req.InitialCash),
		history:   newHistory(req.Strategy),
		totalFees: decimal.Zero,
	}

	log := e.log.With(
		zap.String("run_id", r.runID),
		zap.String("symbol", req.Symbol),
		zap.String("strategy", req.Strategy.Name()),
	)
	log.Info("backtest starting",
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
		zap.String("resolution", string(req.Resolution)),
	)

	// The single suspending step: fetch the whole dataset before the loop.
	bars, err := e.source.GetBars(ctx, req.Symbol, req.Resolution, req.Start, req.End)
	if err != nil {
		return e.finish(log, r, fmt.Errorf("get bars: %w", err)), nil
	}
	if err := market.ValidateSeries(bars); err != nil {
		return e.finish(log, r, fmt.Errorf("bar series: %w", err)), nil
	}

	r.state = StateRunning

	for _, bar := range bars {
		// Cooperative cancellation, once per bar.
		if err := ctx.Err(); err != nil {
			return e.finish(log, r, fmt.Errorf("cancelled: %w", err)), nil
		}

		if err := e.step(log, r, bar); err != nil {
			return e.finish(log, r, err), nil
		}
	}

	// Orders still pending when the data runs out are cancelled, never
	// silently dropped.
	for _, o := range r.pending {
		o.Status = market.OrderCancelled
		o.Reason = "end of data"
		r.trades = append(r.trades, o)
	}
	r.pending = nil

	return e.finish(log, r, nil), nil
}

// step processes one bar. A returned error is fatal to the run.
func (e *Engine) step(log *zap.Logger, r *run, bar market.Bar) error {
	// 1) Extend the indicator history.
	r.history.Append(bar)

	var settled []market.Order

	// 2) Re-evaluate orders carried from earlier bars. Trailing stops
	// ratchet on the close before matching.
	var stillPending []market.Order
	for _, o := range r.pending {
		o = sim.Trail(o, bar)
		o = r.matcher.MatchPending(o, bar)
		if o.Open() {
			stillPending = append(stillPending, o)
			continue
		}
		o, err := e.settle(log, r, o)
		if err != nil {
			return err
		}
		settled = append(settled, o)
	}
	r.pending = stillPending

	// 3) Ask the strategy for this bar's decision.
	sig, err := r.req.Strategy.GenerateSignal(bar, r.history, r.book.Positions(), r.pending)
	if err != nil {
		return fmt.Errorf("strategy %s: %w", r.req.Strategy.Name(), err)
	}

	// 4) Resolve an actionable signal against the current bar.
	if sig.Actionable() {
		r.orderSeq++
		o := r.matcher.Match(orderID(r.orderSeq), sig, bar)
		if o.Open() {
			r.pending = append(r.pending, o)
		} else {
			o, err = e.settle(log, r, o)
			if err != nil {
				return err
			}
			settled = append(settled, o)
		}
	}

	// 5) Record every settled order, then 6) snapshot equity at the close.
	r.trades = append(r.trades, settled...)
	r.book.MarkPrice(bar.Symbol, bar.Close)
	snap := r.book.Snapshot(bar.Time)
	r.curve = append(r.curve, snap)

	if e.onBar != nil {
		e.onBar(BarEvent{Bar: bar, Orders: settled, Snapshot: snap})
	}
	return nil
}

// settle prices and applies a filled order. Insufficient cash or position
// downgrades the order to rejected with the book untouched; those are
// matching outcomes, not errors. Anything else from the book is fatal.
func (e *Engine) settle(log *zap.Logger, r *run, o market.Order) (market.Order, error) {
	if o.Status != market.OrderFilled {
		return o, nil
	}

	fee := e.computeFee(log, r, o)

	switch err := r.book.ApplyFill(o, fee); {
	case err == nil:
		r.totalFees = r.totalFees.Add(fee.Total)

	case errors.Is(err, sim.ErrInsufficientCash),
		errors.Is(err, sim.ErrInsufficientPosition):
		log.Debug("fill reverted",
			zap.String("order_id", o.ID),
			zap.String("side", o.Side.String()),
			zap.Int64("quantity", o.Quantity),
			zap.Error(err),
		)
		o.Status = market.OrderRejected
		o.Reason = err.Error()
		o.FilledAt = time.Time{}
		o.FilledPrice = 0

	default:
		return o, fmt.Errorf("apply fill %s: %w", o.ID, err)
	}

	return o, nil
}

// computeFee itemizes the order's costs. A non-tradable breakdown (fee
// anomaly) degrades to zero cost and is logged for audit rather than
// failing the run.
func (e *Engine) computeFee(log *zap.Logger, r *run, o market.Order) fees.Breakdown {
	value := decimal.NewFromFloat(o.FilledPrice).Mul(decimal.NewFromInt(o.Quantity))
	fee := e.schedule.Compute(value, o.Quantity, o.Symbol, o.Side == market.Sell)
	if fee.NonTradable {
		log.Warn("fee computation anomaly, applying zero cost",
			zap.String("order_id", o.ID),
			zap.String("trade_value", value.String()),
		)
	}
	return fee
}

// finish seals the run into an immutable result. err != nil marks the run
// FAILED; accumulated history is preserved either way.
func (e *Engine) finish(log *zap.Logger, r *run, err error) Result {
	res := Result{
		RunID:       r.runID,
		Strategy:    r.req.Strategy.Name(),
		Symbol:      r.req.Symbol,
		InitialCash: r.req.InitialCash,
		Trades:      r.trades,
		EquityCurve: r.curve,
		Stats:       ComputeStats(r.req.InitialCash, r.trades, r.curve, r.totalFees),
	}

	if len(r.curve) > 0 {
		res.FinalEquity = r.curve[len(r.curve)-1].TotalEquity
	} else {
		res.FinalEquity = r.req.InitialCash
	}

	if err != nil {
		r.state = StateFailed
		res.State = StateFailed
		res.Err = err.Error()
		log.Warn("backtest failed", zap.Error(err), zap.Int("bars_processed", len(r.curve)))
		return res
	}

	r.state = StateCompleted
	res.State = StateCompleted
	res.Success = true
	log.Info("backtest completed",
		zap.Int("bars", len(r.curve)),
		zap.Int("orders", len(r.trades)),
		zap.String("final_equity", res.FinalEquity.StringFixed(2)),
	)
	return res
}

// newHistory builds the run's indicator history, asking the strategy which
// indicators it needs.
func newHistory(strat strategies.Strategy) *indicators.History {
	if p, ok := strat.(strategies.Indicators); ok {
		return indicators.NewHistory(p.Indicators()...)
	}
	return indicators.NewHistory()
}

func orderID(seq int) string {
	// Sequential within a run so identical runs produce identical
	// histories. ULIDs identify runs, not orders.
	return fmt.Sprintf("ORD-%06d", seq)
}
