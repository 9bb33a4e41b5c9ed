package marketdata

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/shutdown"
	"main/pkg/exception"
)

// downstreamConsumers is the fixed fan-out arity of every market data
// engine: one consumer feeds the indicator engine, one the trading engine.
const downstreamConsumers = 2

// Engine runs one exchange adapter and fans its events out.
type Engine struct {
	adapter  Adapter
	configRx *bus.Consumer[model.Config]
	fanout   *bus.Fanout[model.MarketEvent]
	metrics  *obs.Metrics
}

// New wires an engine around an exchange adapter. The config consumer
// gates startup: the adapter only runs once configuration has arrived.
func New(adapter Adapter, configRx *bus.Consumer[model.Config], metrics *obs.Metrics) *Engine {
	return &Engine{
		adapter:  adapter,
		configRx: configRx,
		fanout:   bus.NewFanout[model.MarketEvent](downstreamConsumers, bus.DefaultCapacity),
		metrics:  metrics,
	}
}

func (e *Engine) Name() string {
	return e.adapter.Exchange() + "-market-data-engine"
}

// DataConsumer mints one fanout consumer for market events. Must only be
// called before Start.
func (e *Engine) DataConsumer() (*bus.Consumer[model.MarketEvent], error) {
	return e.fanout.Consumer()
}

// Start waits for configuration and drives the adapter to completion.
func (e *Engine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	e.fanout.Seal()
	defer e.fanout.Close()

	if _, err := awaitConfig(ctx, e.configRx, sd); err != nil {
		if sd.IsTriggered() {
			return nil
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sd.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	logs.Infof("starting market data feed, exchange: %s", e.adapter.Exchange())
	err := e.adapter.Run(runCtx, func(ev model.MarketEvent) {
		start := time.Now()
		if err := e.fanout.PublishUntil(sd.Done(), ev); err != nil {
			// shutdown raced the publish; the adapter winds down on runCtx
			return
		}
		e.metrics.IncMarketEvent()
		e.metrics.ObservePublishStall(time.Since(start))
	})
	if sd.IsTriggered() || ctx.Err() != nil {
		return nil
	}
	return err
}

// awaitConfig polls the config consumer until a value arrives or
// cancellation is observed.
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
