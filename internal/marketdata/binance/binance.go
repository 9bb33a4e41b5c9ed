package binance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
	"main/internal/model/enum"
)

const Exchange = "binance"

const _baseWsUrl = "wss://stream.binance.com:9443/ws"

var defaultSymbols = []string{"BTCUSDT"}

// Adapter streams the 'Partial Book Depth Stream' and emits top-of-book
// quotes.
type Adapter struct {
	symbols []string
}

func New(symbols ...string) *Adapter {
	if len(symbols) == 0 {
		symbols = defaultSymbols
	}
	return &Adapter{symbols: symbols}
}

func (a *Adapter) Exchange() string {
	return Exchange
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type subscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

type partialBookDepth struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"` // [0]price [1]quantity
	Asks         [][2]string `json:"asks"` // [0]price [1]quantity
}

func (a *Adapter) Run(ctx context.Context, emit func(model.MarketEvent)) error {
	wss := ws.New(ctx, _baseWsUrl)
	if err := wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}
	defer wss.Close()

	ch, cancel := wss.Subscribe()
	defer cancel()

	for i, symbol := range a.symbols {
		if err := a.subscribeDepth(ctx, wss, symbol, int64(i+1)); err != nil {
			return errors.Wrap(err, "subscribe depth").With("symbol", symbol)
		}
	}

	// the partial depth payload carries no symbol; it is only attached
	// when a single stream is subscribed
	symbol := ""
	if len(a.symbols) == 1 {
		symbol = a.symbols[0]
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}

			depth, ok := ws.ReadMessage[partialBookDepth](m)
			if !ok || len(depth.Bids) == 0 || len(depth.Asks) == 0 {
				continue
			}
			ev, err := quoteFromDepth(depth, symbol)
			if err != nil {
				continue
			}
			emit(ev)
		}
	}
}

func (a *Adapter) subscribeDepth(ctx context.Context, wss *ws.WebSocket, symbol string, id int64) error {
	appendIntoRegister := true
	if err := wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, ws *ws.WebSocket) error {
			payload := subscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{
					fmt.Sprintf("%s@depth20@100ms", strings.ToLower(symbol)),
				},
				ID: id,
			}

			if err := ws.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp subscribeResponse
			if err := m.Unmarshal(&resp); err != nil || resp.ID != id {
				return false, nil
			}

			if resp.Result != nil {
				return false, errors.Errorf("subscribe and wait, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

func quoteFromDepth(depth partialBookDepth, symbol string) (model.MarketEvent, error) {
	bid, err := decimal.NewFromString(depth.Bids[0][0])
	if err != nil {
		return model.MarketEvent{}, errors.Wrap(err, "parse bid")
	}
	ask, err := decimal.NewFromString(depth.Asks[0][0])
	if err != nil {
		return model.MarketEvent{}, errors.Wrap(err, "parse ask")
	}
	now := time.Now().UTC().UnixNano()
	return model.MarketEvent{
		Exchange:    Exchange,
		Symbol:      symbol,
		Kind:        enum.MarketEventQuote,
		Bid:         bid,
		Ask:         ask,
		EventTsNano: now,
		RecvTsNano:  now,
	}, nil
}
