package ftx

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	ftxdecimal "github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
	"main/internal/model/enum"
)

const Exchange = "ftx"

const _baseWsUrl = "wss://ftx.com/ws/"

var defaultMarkets = []string{"BTC-PERP"}

// Adapter streams the ticker channel and emits quote events.
type Adapter struct {
	markets []string
}

func New(markets ...string) *Adapter {
	if len(markets) == 0 {
		markets = defaultMarkets
	}
	return &Adapter{markets: markets}
}

func (a *Adapter) Exchange() string {
	return Exchange
}

type subscribeRequest struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

type tickerMessage struct {
	Channel string     `json:"channel"`
	Market  string     `json:"market"`
	Type    string     `json:"type"`
	Data    tickerData `json:"data"`
}

type tickerData struct {
	Bid  ftxdecimal.Decimal `json:"bid"`
	Ask  ftxdecimal.Decimal `json:"ask"`
	Last ftxdecimal.Decimal `json:"last"`
	Time float64            `json:"time"`
}

func (a *Adapter) Run(ctx context.Context, emit func(model.MarketEvent)) error {
	wss := ws.New(ctx, _baseWsUrl)
	if err := wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}
	defer wss.Close()

	ch, cancel := wss.Subscribe()
	defer cancel()

	for _, market := range a.markets {
		if err := a.subscribeTicker(ctx, wss, market); err != nil {
			return errors.Wrap(err, "subscribe ticker").With("market", market)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}

			msg, ok := ws.ReadMessage[tickerMessage](m)
			if !ok || msg.Channel != "ticker" || msg.Type != "update" {
				continue
			}
			ev, err := quoteFromTicker(msg)
			if err != nil {
				continue
			}
			emit(ev)
		}
	}
}

func (a *Adapter) subscribeTicker(ctx context.Context, wss *ws.WebSocket, market string) error {
	appendIntoRegister := true
	if err := wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, ws *ws.WebSocket) error {
			payload := subscribeRequest{
				Op:      "subscribe",
				Channel: "ticker",
				Market:  market,
			}

			if err := ws.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp tickerMessage
			if err := m.Unmarshal(&resp); err != nil {
				return false, nil
			}
			if resp.Market != market || resp.Channel != "ticker" {
				return false, nil
			}

			switch resp.Type {
			case "subscribed":
				return true, nil
			case "error":
				return false, errors.Errorf("subscribe rejected, market: %s", market)
			default:
				return false, nil
			}
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

func quoteFromTicker(msg tickerMessage) (model.MarketEvent, error) {
	bid, err := decimal.NewFromString(msg.Data.Bid.String())
	if err != nil {
		return model.MarketEvent{}, errors.Wrap(err, "parse bid")
	}
	ask, err := decimal.NewFromString(msg.Data.Ask.String())
	if err != nil {
		return model.MarketEvent{}, errors.Wrap(err, "parse ask")
	}
	last, err := decimal.NewFromString(msg.Data.Last.String())
	if err != nil {
		return model.MarketEvent{}, errors.Wrap(err, "parse last")
	}
	return model.MarketEvent{
		Exchange:    Exchange,
		Symbol:      msg.Market,
		Kind:        enum.MarketEventQuote,
		Bid:         bid,
		Ask:         ask,
		Last:        last,
		EventTsNano: int64(msg.Data.Time * float64(time.Second)),
		RecvTsNano:  time.Now().UTC().UnixNano(),
	}, nil
}
