package indicator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/shutdown"
)

func publishedConfigRx(t *testing.T) *bus.Consumer[model.Config] {
	t.Helper()
	fan := bus.NewFanout[model.Config](1, 1)
	rx, err := fan.Consumer()
	require.NoError(t, err)
	fan.Publish(model.Config{BotID: 7, Exchanges: []string{"sim"}})
	return rx
}

func quote(exchange, symbol string, bid, ask int64) model.MarketEvent {
	now := time.Now().UTC().UnixNano()
	return model.MarketEvent{
		Exchange:    exchange,
		Symbol:      symbol,
		Kind:        enum.MarketEventQuote,
		Bid:         decimal.New(bid, -2),
		Ask:         decimal.New(ask, -2),
		EventTsNano: now,
		RecvTsNano:  now,
	}
}

func popIndicator(t *testing.T, rx *bus.Consumer[model.IndicatorEvent]) model.IndicatorEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if ev, ok := rx.TryPop(); ok {
			return ev
		}
		if time.Now().After(deadline) {
			t.Fatal("no indicator event before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMidPriceAndMovingAverage(t *testing.T) {
	marketFan := bus.NewFanout[model.MarketEvent](1, bus.DefaultCapacity)
	marketRx, err := marketFan.Consumer()
	require.NoError(t, err)

	metrics := obs.NewMetrics()
	e := New(publishedConfigRx(t), map[string]*bus.Consumer[model.MarketEvent]{"sim": marketRx}, metrics)

	tradingRx, err := e.DataConsumer()
	require.NoError(t, err)
	auditRx, err := e.DataConsumer()
	require.NoError(t, err)

	sd := shutdown.New()
	require.NoError(t, engine.Launch(1, e, sd))

	// constant quotes make the moving average equal the mid price
	for i := 0; i < DefaultWindow; i++ {
		marketFan.Publish(quote("sim", "SIM-USD", 9_998, 10_002))
	}

	mid := popIndicator(t, tradingRx)
	assert.Equal(t, enum.IndicatorMidPrice, mid.Kind)
	assert.Equal(t, "100", mid.Value.String())
	assert.Equal(t, "sim", mid.Exchange)
	assert.Equal(t, 1, mid.Window)

	sawAverage := false
	deadline := time.Now().Add(5 * time.Second)
	for !sawAverage && time.Now().Before(deadline) {
		ev, ok := tradingRx.TryPop()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if ev.Kind == enum.IndicatorMovingAverage {
			sawAverage = true
			assert.Equal(t, DefaultWindow, ev.Window)
			assert.Equal(t, "100", ev.Value.String())
		}
	}
	require.True(t, sawAverage, "moving average never emitted")

	// the audit consumer sees the same stream
	auditEv := popIndicator(t, auditRx)
	assert.Equal(t, enum.IndicatorMidPrice, auditEv.Kind)

	assert.NotZero(t, metrics.Snapshot().IndicatorEvents)

	sd.Trigger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
}

func TestTradeOnlyEventsUseLastPrice(t *testing.T) {
	now := time.Now().UTC().UnixNano()
	mid, ok := midPrice(model.MarketEvent{
		Exchange:    "sim",
		Kind:        enum.MarketEventTrade,
		Last:        decimal.New(10_000, -2),
		EventTsNano: now,
	})
	require.True(t, ok)
	assert.Equal(t, "100", mid.String())

	_, ok = midPrice(model.MarketEvent{Exchange: "sim"})
	assert.False(t, ok)
}

func TestEngineStopsOnTrigger(t *testing.T) {
	marketFan := bus.NewFanout[model.MarketEvent](1, 8)
	marketRx, err := marketFan.Consumer()
	require.NoError(t, err)

	e := New(publishedConfigRx(t), map[string]*bus.Consumer[model.MarketEvent]{"sim": marketRx}, nil)
	_, err = e.DataConsumer()
	require.NoError(t, err)

	sd := shutdown.New()
	require.NoError(t, engine.Launch(1, e, sd))

	sd.Trigger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
}
