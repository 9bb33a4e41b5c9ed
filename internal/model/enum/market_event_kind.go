package enum

// MarketEventKind categorizes normalized market data events.
type MarketEventKind uint8

const (
	MarketEventUnknown MarketEventKind = iota
	MarketEventQuote
	MarketEventTrade
	MarketEventDepth
)

func (k MarketEventKind) String() string {
	switch k {
	case MarketEventQuote:
		return "quote"
	case MarketEventTrade:
		return "trade"
	case MarketEventDepth:
		return "depth"
	default:
		return "unknown"
	}
}
