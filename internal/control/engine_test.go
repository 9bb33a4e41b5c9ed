package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/engine"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/shutdown"
	"main/pkg/exception"
)

// stubControlServer answers the hello handshake with one config message
// and keeps the connection open until the client disconnects.
func stubControlServer(t *testing.T, exchanges []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var hello Message
		if err := conn.ReadJSON(&hello); err != nil {
			return
		}
		if hello.Type != MessageHello {
			return
		}
		cfg := model.Config{BotID: hello.BotID, Exchanges: exchanges}
		if err := conn.WriteJSON(Message{Type: MessageConfig, Config: &cfg}); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestControlEngineDeliversConfig(t *testing.T) {
	srv := stubControlServer(t, []string{"ftx", "binance"})
	defer srv.Close()

	sd := shutdown.New()
	metrics := obs.NewMetrics()
	ce := New(7, wsURL(srv), 2, metrics)

	bootstrap, err := ce.ConfigConsumer()
	require.NoError(t, err)
	second, err := ce.ConfigConsumer()
	require.NoError(t, err)

	require.NoError(t, engine.Launch(0, ce, sd))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := AwaitConfig(ctx, bootstrap, sd)
	require.NoError(t, err)
	assert.Equal(t, model.BotID(7), cfg.BotID)
	assert.Equal(t, []string{"ftx", "binance"}, cfg.Exchanges)

	// every provisioned consumer sees the same value
	cfg2, err := AwaitConfig(ctx, second, sd)
	require.NoError(t, err)
	assert.Equal(t, cfg, cfg2)

	assert.Equal(t, uint64(1), metrics.Snapshot().ConfigUpdates)

	sd.Trigger()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, sd.Wait(waitCtx))
}

func TestControlEngineConsumerAfterStartFails(t *testing.T) {
	srv := stubControlServer(t, []string{"ftx"})
	defer srv.Close()

	sd := shutdown.New()
	ce := New(1, wsURL(srv), 3, nil)
	bootstrap, err := ce.ConfigConsumer()
	require.NoError(t, err)

	require.NoError(t, engine.Launch(0, ce, sd))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = AwaitConfig(ctx, bootstrap, sd)
	require.NoError(t, err)

	_, err = ce.ConfigConsumer()
	assert.ErrorIs(t, err, exception.ErrFanoutSealed)

	sd.Trigger()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, sd.Wait(waitCtx))
}

func TestControlEngineDialFailureTriggersShutdown(t *testing.T) {
	sd := shutdown.New()
	ce := New(1, "ws://127.0.0.1:1/control", 1, nil)

	require.NoError(t, engine.Launch(0, ce, sd))

	select {
	case <-sd.Done():
	case <-time.After(15 * time.Second):
		t.Fatal("dial failure did not trigger shutdown")
	}
}
