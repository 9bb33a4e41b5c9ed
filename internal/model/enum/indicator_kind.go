package enum

// IndicatorKind categorizes derived indicator values.
type IndicatorKind uint8

const (
	IndicatorUnknown IndicatorKind = iota
	IndicatorMidPrice
	IndicatorMovingAverage
)

func (k IndicatorKind) String() string {
	switch k {
	case IndicatorMidPrice:
		return "mid_price"
	case IndicatorMovingAverage:
		return "moving_average"
	default:
		return "unknown"
	}
}
