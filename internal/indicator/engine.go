package indicator

import (
	"context"
	"runtime"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/shutdown"
	"main/pkg/exception"
)

// downstreamConsumers: one feeds the trading engine, one the audit engine.
const downstreamConsumers = 2

// DefaultWindow is the moving average length in events.
const DefaultWindow = 16

var two = decimal.NewFromInt(2)

// Engine derives indicator values from the market data streams.
//
// It busy-polls every inbound consumer; ordering is preserved within one
// exchange's stream but not across exchanges.
type Engine struct {
	configRx  *bus.Consumer[model.Config]
	marketRxs map[string]*bus.Consumer[model.MarketEvent]
	fanout    *bus.Fanout[model.IndicatorEvent]
	metrics   *obs.Metrics
	window    int

	state map[seriesKey]*series
}

type seriesKey struct {
	exchange string
	symbol   string
}

type series struct {
	mids []decimal.Decimal
	next int
	full bool
	sum  decimal.Decimal
}

// New wires an indicator engine. marketRxs holds one consumer per
// launched market data engine, keyed by exchange name.
func New(configRx *bus.Consumer[model.Config], marketRxs map[string]*bus.Consumer[model.MarketEvent], metrics *obs.Metrics) *Engine {
	return &Engine{
		configRx:  configRx,
		marketRxs: marketRxs,
		fanout:    bus.NewFanout[model.IndicatorEvent](downstreamConsumers, bus.DefaultCapacity),
		metrics:   metrics,
		window:    DefaultWindow,
		state:     make(map[seriesKey]*series),
	}
}

func (e *Engine) Name() string {
	return "indicator-engine"
}

// DataConsumer mints one fanout consumer for indicator events. Must only
// be called before Start.
func (e *Engine) DataConsumer() (*bus.Consumer[model.IndicatorEvent], error) {
	return e.fanout.Consumer()
}

func (e *Engine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	e.fanout.Seal()
	defer e.fanout.Close()

	if _, err := awaitConfig(ctx, e.configRx, sd); err != nil {
		if sd.IsTriggered() {
			return nil
		}
		return err
	}

	for {
		if sd.IsTriggered() || ctx.Err() != nil {
			return nil
		}

		progressed := false
		for _, rx := range e.marketRxs {
			ev, ok := rx.TryPop()
			if !ok {
				continue
			}
			progressed = true
			// a publish abort means shutdown was triggered mid-event
			if err := e.apply(sd.Done(), ev); err != nil {
				return nil
			}
		}
		if !progressed {
			runtime.Gosched()
		}
	}
}

// apply folds one market event into the per-series state and publishes
// the derived values.
func (e *Engine) apply(done <-chan struct{}, ev model.MarketEvent) error {
	mid, ok := midPrice(ev)
	if !ok {
		return nil
	}

	if err := e.publish(done, model.IndicatorEvent{
		Exchange: ev.Exchange,
		Symbol:   ev.Symbol,
		Kind:     enum.IndicatorMidPrice,
		Value:    mid,
		Window:   1,
		TsNano:   ev.RecvTsNano,
	}); err != nil {
		return err
	}

	key := seriesKey{exchange: ev.Exchange, symbol: ev.Symbol}
	s := e.state[key]
	if s == nil {
		s = &series{mids: make([]decimal.Decimal, e.window)}
		e.state[key] = s
	}

	if s.full {
		s.sum = s.sum.Sub(s.mids[s.next])
	}
	s.mids[s.next] = mid
	s.sum = s.sum.Add(mid)
	s.next++
	if s.next == e.window {
		s.next = 0
		s.full = true
	}

	if s.full {
		return e.publish(done, model.IndicatorEvent{
			Exchange: ev.Exchange,
			Symbol:   ev.Symbol,
			Kind:     enum.IndicatorMovingAverage,
			Value:    s.sum.Div(decimal.NewFromInt(int64(e.window))),
			Window:   e.window,
			TsNano:   ev.RecvTsNano,
		})
	}
	return nil
}

func (e *Engine) publish(done <-chan struct{}, ev model.IndicatorEvent) error {
	if err := e.fanout.PublishUntil(done, ev); err != nil {
		return err
	}
	e.metrics.IncIndicatorEvent()
	return nil
}

// midPrice derives the quote midpoint, falling back to the last trade
// price when one side is missing.
func midPrice(ev model.MarketEvent) (decimal.Decimal, bool) {
	if ev.Bid.IsPositive() && ev.Ask.IsPositive() {
		return ev.Bid.Add(ev.Ask).Div(two), true
	}
	if ev.Last.IsPositive() {
		return ev.Last, true
	}
	return decimal.Decimal{}, false
}

func awaitConfig(ctx context.Context, c *bus.Consumer[model.Config], sd *shutdown.Shutdown) (model.Config, error) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		if cfg, ok := c.TryPop(); ok {
			return cfg, nil
		}
		select {
		case <-ctx.Done():
			return model.Config{}, ctx.Err()
		case <-sd.Done():
			return model.Config{}, exception.ErrControlClosed
		case <-ticker.C:
		}
	}
}
