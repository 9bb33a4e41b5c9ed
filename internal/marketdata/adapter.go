package marketdata

import (
	"context"

	"main/internal/model"
)

// Emit publishes one normalized market event downstream. It is an alias
// so adapter packages can satisfy Adapter without importing this one.
type Emit = func(model.MarketEvent)

// Adapter is one exchange's feed: it connects, subscribes and pushes
// normalized events through emit until the context is canceled.
//
// Adapters never see the fabric; emit is their only output. Returning a
// non-nil error means the feed is dead and the engine cannot make
// progress.
type Adapter interface {
	Exchange() string
	Run(ctx context.Context, emit Emit) error
}
