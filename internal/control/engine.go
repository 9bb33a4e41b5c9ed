package control

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/shutdown"
	"main/pkg/exception"
)

const dialTimeout = 10 * time.Second

// Engine owns the connection to the control plane and is the single
// source of configuration for the rest of the topology.
type Engine struct {
	botID      model.BotID
	serverAddr string
	fanout     *bus.Fanout[model.Config]
	metrics    *obs.Metrics
}

// New creates a control engine. The consumer count must cover everyone
// who will read configuration: the bootstrap wait in main, one per
// potential market data engine and the indicator engine.
func New(botID model.BotID, serverAddr string, consumers int, metrics *obs.Metrics) *Engine {
	return &Engine{
		botID:      botID,
		serverAddr: serverAddr,
		fanout:     bus.NewFanout[model.Config](consumers, bus.DefaultCapacity),
		metrics:    metrics,
	}
}

func (e *Engine) Name() string {
	return "control-engine"
}

// ConfigConsumer mints one fanout consumer for configuration values.
// Must only be called before Start.
func (e *Engine) ConfigConsumer() (*bus.Consumer[model.Config], error) {
	return e.fanout.Consumer()
}

// Start connects, authenticates with the bot id and forwards every
// configuration message to the fanout until cancellation.
func (e *Engine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	e.fanout.Seal()
	defer e.fanout.Close()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, e.serverAddr, nil)
	if err != nil {
		return errors.Wrap(err, "dial control plane").With("addr", e.serverAddr)
	}

	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-sd.Done():
			_ = conn.Close()
		case <-ctx.Done():
			_ = conn.Close()
		case <-closed:
		}
	}()
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: MessageHello, BotID: e.botID}); err != nil {
		return errors.Wrap(err, "send hello")
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if sd.IsTriggered() || ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read control message")
		}

		switch msg.Type {
		case MessageConfig:
			if msg.Config == nil {
				return errors.Wrap(exception.ErrUnexpectedMessage, "config message without payload")
			}
			logs.Infof("configuration received, exchanges: %v", msg.Config.Exchanges)
			if err := e.fanout.PublishUntil(sd.Done(), *msg.Config); err != nil {
				return nil
			}
			e.metrics.IncConfigUpdate()
		default:
			logs.Warnf("ignoring control message, type: %s", msg.Type)
		}
	}
}

// AwaitConfig blocks until the consumer delivers the first configuration
// value, shutdown is triggered, or the context expires.
func AwaitConfig(ctx context.Context, c *bus.Consumer[model.Config], sd *shutdown.Shutdown) (model.Config, error) {
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
