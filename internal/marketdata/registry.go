package marketdata

import (
	"strings"

	"github.com/yanun0323/errors"

	"main/internal/marketdata/binance"
	"main/internal/marketdata/ftx"
	"main/internal/marketdata/sim"
	"main/pkg/exception"
)

var (
	_ Adapter = (*binance.Adapter)(nil)
	_ Adapter = (*ftx.Adapter)(nil)
	_ Adapter = (*sim.Adapter)(nil)
)

// Supported lists the exchange names this node can launch. The control
// fanout is provisioned against this list, so it is the static upper
// bound of the market data topology.
func Supported() []string {
	return []string{binance.Exchange, ftx.Exchange, sim.Exchange}
}

// NewAdapter builds the adapter for a recognized exchange name.
// Unrecognized names fail with ErrUnsupportedExchange; the caller logs
// and skips them.
func NewAdapter(name string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case binance.Exchange:
		return binance.New(), nil
	case ftx.Exchange:
		return ftx.New(), nil
	case sim.Exchange:
		return sim.New(), nil
	default:
		return nil, errors.Wrapf(exception.ErrUnsupportedExchange, "exchange %q", name)
	}
}
