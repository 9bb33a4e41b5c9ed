package trading

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/shutdown"
)

// Engine is the trading decision loop.
//
// It busy-polls its two inbound streams to keep reaction latency low,
// trading CPU for responsiveness, and checks the shutdown signal every
// iteration so the completion barrier resolves without a forced exit.
type Engine struct {
	marketRxs   map[string]*bus.Consumer[model.MarketEvent]
	indicatorRx *bus.Consumer[model.IndicatorEvent]
	metrics     *obs.Metrics

	marketSeen    atomic.Uint64
	indicatorSeen atomic.Uint64
}

// New wires a trading engine. marketRxs holds one consumer per launched
// market data engine, keyed by exchange name.
func New(marketRxs map[string]*bus.Consumer[model.MarketEvent], indicatorRx *bus.Consumer[model.IndicatorEvent], metrics *obs.Metrics) *Engine {
	return &Engine{
		marketRxs:   marketRxs,
		indicatorRx: indicatorRx,
		metrics:     metrics,
	}
}

func (e *Engine) Name() string {
	return "trading-engine"
}

func (e *Engine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	logs.Info("starting trading loop")

	for {
		if sd.IsTriggered() || ctx.Err() != nil {
			logs.Infof("trading loop stopped, market events: %d, indicator events: %d",
				e.marketSeen.Load(), e.indicatorSeen.Load())
			return nil
		}

		progressed := false

		// market events are read and discarded for now; a strategy
		// would act here
		for _, rx := range e.marketRxs {
			if _, ok := rx.TryPop(); ok {
				e.marketSeen.Add(1)
				progressed = true
			}
		}

		if ev, ok := e.indicatorRx.TryPop(); ok {
			e.indicatorSeen.Add(1)
			progressed = true
			e.onIndicator(ev)
		}

		if !progressed {
			runtime.Gosched()
		}
	}
}

func (e *Engine) onIndicator(ev model.IndicatorEvent) {
	logs.Infof("indicator, exchange: %s, symbol: %s, kind: %s, value: %s, window: %d",
		ev.Exchange, ev.Symbol, ev.Kind, ev.Value, ev.Window)
}

// Seen reports how many events the loop has consumed. Diagnostics only.
func (e *Engine) Seen() (market, indicator uint64) {
	return e.marketSeen.Load(), e.indicatorSeen.Load()
}
