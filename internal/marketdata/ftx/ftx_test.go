package ftx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
)

func TestQuoteFromTicker(t *testing.T) {
	raw := []byte(`{
		"channel": "ticker",
		"market": "BTC-PERP",
		"type": "update",
		"data": {"bid": 64000.1, "ask": 64000.2, "last": 64000.15, "time": 1650000000.123}
	}`)
	var msg tickerMessage
	require.NoError(t, json.Unmarshal(raw, &msg))

	ev, err := quoteFromTicker(msg)
	require.NoError(t, err)
	assert.Equal(t, Exchange, ev.Exchange)
	assert.Equal(t, "BTC-PERP", ev.Symbol)
	assert.Equal(t, enum.MarketEventQuote, ev.Kind)
	assert.True(t, ev.Bid.IsPositive())
	assert.True(t, ev.Ask.GreaterThan(ev.Bid))
	assert.NotZero(t, ev.EventTsNano)
}

func TestNewDefaultMarkets(t *testing.T) {
	a := New()
	assert.Equal(t, defaultMarkets, a.markets)
	assert.Equal(t, "ftx", a.Exchange())
}
