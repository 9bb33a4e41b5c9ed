package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// MarketEvent is one normalized unit of market data produced by an
// exchange adapter. It is a value type: fanning out duplicates the event
// per consumer queue.
type MarketEvent struct {
	Exchange    string
	Symbol      string
	Kind        enum.MarketEventKind
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	Last        decimal.Decimal
	EventTsNano int64
	RecvTsNano  int64
}

// IndicatorEvent is a derived value computed from one or more market
// event streams.
type IndicatorEvent struct {
	Exchange string
	Symbol   string
	Kind     enum.IndicatorKind
	Value    decimal.Decimal
	Window   int
	TsNano   int64
}
