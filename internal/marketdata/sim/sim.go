package sim

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

const Exchange = "sim"

// Config controls the synthetic feed.
type Config struct {
	Symbols  []string
	Interval time.Duration // 0 = no pacing
	Count    int           // 0 = unlimited
	Base     int64         // price ticks, two implied decimals
	Spread   int64
}

// DefaultConfig is a slow, endless feed suitable for running the node
// without any exchange connectivity.
func DefaultConfig() Config {
	return Config{
		Symbols:  []string{"SIM-USD"},
		Interval: 100 * time.Millisecond,
		Base:     10_000,
		Spread:   2,
	}
}

// Adapter generates deterministic synthetic quotes. The price walks a
// fixed sawtooth around the base so downstream indicator output is
// reproducible.
type Adapter struct {
	cfg Config
}

func New() *Adapter {
	return NewWithConfig(DefaultConfig())
}

func NewWithConfig(cfg Config) *Adapter {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"SIM-USD"}
	}
	if cfg.Base <= 0 {
		cfg.Base = 10_000
	}
	if cfg.Spread < 0 {
		cfg.Spread = 0
	}
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Exchange() string {
	return Exchange
}

func (a *Adapter) Run(ctx context.Context, emit func(model.MarketEvent)) error {
	for i := 0; a.cfg.Count == 0 || i < a.cfg.Count; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		emit(a.tick(i))

		if a.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(a.cfg.Interval):
			}
		}
	}

	// finite feeds idle until cancellation so the engine does not report
	// an early stop
	<-ctx.Done()
	return nil
}

func (a *Adapter) tick(i int) model.MarketEvent {
	symbol := a.cfg.Symbols[i%len(a.cfg.Symbols)]
	mid := a.cfg.Base + int64(i%16)
	now := time.Now().UTC().UnixNano()
	return model.MarketEvent{
		Exchange:    Exchange,
		Symbol:      symbol,
		Kind:        enum.MarketEventQuote,
		Bid:         decimal.New(mid-a.cfg.Spread, -2),
		Ask:         decimal.New(mid+a.cfg.Spread, -2),
		Last:        decimal.New(mid, -2),
		EventTsNano: now,
		RecvTsNano:  now,
	}
}
