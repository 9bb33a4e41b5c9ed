package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/audit"
	"main/internal/bus"
	"main/internal/control"
	"main/internal/engine"
	"main/internal/indicator"
	"main/internal/marketdata"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/shutdown"
	"main/internal/trading"
)

// Process exit codes.
const (
	exitOK      = 0
	exitRuntime = 1 // an engine died and forced a coordinated shutdown
	exitConfig  = 2 // missing or malformed environment configuration
	exitLaunch  = 3 // topology could not be fully launched
)

const configWaitTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	loaded, err := ops.FromEnv()
	if err != nil {
		logs.Errorf("load configuration, err: %+v", err)
		return exitConfig
	}
	logs.Infof("bot_id = %s", loaded.BotID)

	stopProfiler, err := ops.StartProfiler("botnode", loaded.PyroscopeAddr, map[string]string{
		"bot_id": loaded.BotID.String(),
	})
	if err != nil {
		logs.Warnf("profiler disabled, err: %+v", err)
		stopProfiler = func() {}
	}
	defer stopProfiler()

	metrics := obs.NewMetrics()
	sd := shutdown.New()

	// Stage 1: the control engine connects to the control plane and
	// delivers the configuration that shapes the rest of the topology.
	supported := marketdata.Supported()
	configConsumers := 2 + len(supported) // bootstrap + indicator + one per adapter
	controlEngine := control.New(loaded.BotID, loaded.ServerAddr, configConsumers, metrics)

	bootstrapRx, err := controlEngine.ConfigConsumer()
	if err != nil {
		logs.Errorf("wire control fanout, err: %+v", err)
		return exitLaunch
	}
	indicatorConfigRx, err := controlEngine.ConfigConsumer()
	if err != nil {
		logs.Errorf("wire control fanout, err: %+v", err)
		return exitLaunch
	}
	mdConfigRxs := make([]*bus.Consumer[model.Config], 0, len(supported))
	for range supported {
		rx, err := controlEngine.ConfigConsumer()
		if err != nil {
			logs.Errorf("wire control fanout, err: %+v", err)
			return exitLaunch
		}
		mdConfigRxs = append(mdConfigRxs, rx)
	}

	if err := engine.Launch(0, controlEngine, sd); err != nil {
		logs.Errorf("launch control engine, err: %+v", err)
		return exitLaunch
	}

	logs.Debug("waiting for configuration")
	waitCtx, cancelWait := context.WithTimeout(context.Background(), configWaitTimeout)
	cfg, err := control.AwaitConfig(waitCtx, bootstrapRx, sd)
	cancelWait()
	if err != nil {
		logs.Errorf("await configuration, err: %+v", err)
		return exitLaunch
	}

	// Stage 2: one market data engine per recognized exchange, each
	// fanned out to the indicator and trading engines.
	marketForIndicator := make(map[string]*bus.Consumer[model.MarketEvent])
	marketForTrading := make(map[string]*bus.Consumer[model.MarketEvent])
	engineID := 1
	launched := 0
	for _, name := range cfg.Exchanges {
		adapter, err := marketdata.NewAdapter(name)
		if err != nil {
			logs.Errorf("skipping exchange, err: %+v", err)
			continue
		}
		if _, dup := marketForIndicator[adapter.Exchange()]; dup {
			logs.Warnf("duplicate exchange %s, skipping", name)
			continue
		}

		mdEngine := marketdata.New(adapter, mdConfigRxs[launched], metrics)
		indicatorRx, err := mdEngine.DataConsumer()
		if err != nil {
			logs.Errorf("wire market data fanout, exchange: %s, err: %+v", name, err)
			return exitLaunch
		}
		tradingRx, err := mdEngine.DataConsumer()
		if err != nil {
			logs.Errorf("wire market data fanout, exchange: %s, err: %+v", name, err)
			return exitLaunch
		}
		marketForIndicator[adapter.Exchange()] = indicatorRx
		marketForTrading[adapter.Exchange()] = tradingRx

		if err := engine.Launch(engineID, mdEngine, sd); err != nil {
			logs.Errorf("launch market data engine, exchange: %s, err: %+v", name, err)
			return exitLaunch
		}
		engineID++
		launched++
	}

	// Stage 3: indicator, trading and audit engines close the loop.
	indicatorEngine := indicator.New(indicatorConfigRx, marketForIndicator, metrics)
	tradingIndicatorRx, err := indicatorEngine.DataConsumer()
	if err != nil {
		logs.Errorf("wire indicator fanout, err: %+v", err)
		return exitLaunch
	}
	auditIndicatorRx, err := indicatorEngine.DataConsumer()
	if err != nil {
		logs.Errorf("wire indicator fanout, err: %+v", err)
		return exitLaunch
	}

	auditStore, err := newAuditStore(loaded)
	if err != nil {
		logs.Errorf("open audit store, err: %+v", err)
		return exitLaunch
	}
	auditEngine := audit.New(loaded.BotID, auditIndicatorRx, auditStore, metrics)
	tradingEngine := trading.New(marketForTrading, tradingIndicatorRx, metrics)

	if err := engine.Launch(engineID, auditEngine, sd); err != nil {
		logs.Errorf("launch audit engine, err: %+v", err)
		return exitLaunch
	}
	if err := engine.Launch(engineID+1, tradingEngine, sd); err != nil {
		logs.Errorf("launch trading engine, err: %+v", err)
		return exitLaunch
	}
	if err := engine.Launch(engineID+2, indicatorEngine, sd); err != nil {
		logs.Errorf("launch indicator engine, err: %+v", err)
		return exitLaunch
	}

	return handleSignals(sd, loaded.DrainTimeout, metrics)
}

// handleSignals blocks until a termination signal or an engine failure,
// triggers the coordinator and waits for every engine to wind down.
func handleSignals(sd *shutdown.Shutdown, drainTimeout time.Duration, metrics *obs.Metrics) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	code := exitOK
	select {
	case sig := <-sigCh:
		logs.Infof("received %s, shutting down", sig)
		sd.Trigger()
	case <-sd.Done():
		logs.Warn("shutdown triggered by engine failure")
		code = exitRuntime
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := sd.Wait(drainCtx); err != nil {
		logs.Warnf("drain timed out after %s, forcing exit", drainTimeout)
	}

	snap := metrics.Snapshot()
	logs.Infof("metrics: market_events=%d indicator_events=%d config_updates=%d audit_records=%d publish_stall_max=%s",
		snap.MarketEvents, snap.IndicatorEvents, snap.ConfigUpdates, snap.AuditRecords, snap.PublishStall.Max)
	logs.Info("shutdown complete: bye")
	return code
}

func newAuditStore(loaded ops.Loaded) (audit.Store, error) {
	if loaded.AuditDatabaseURL == "" {
		return audit.NewMemoryStore(0), nil
	}
	return audit.NewPostgresStore(loaded.AuditDatabaseURL)
}
