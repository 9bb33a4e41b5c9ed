package model

// Config is the remote configuration delivered by the control plane.
//
// It is published once by the control engine and treated as immutable by
// every consumer; the exchange list drives which market data engines are
// launched.
type Config struct {
	BotID     BotID    `json:"botId"`
	Exchanges []string `json:"exchanges"`
}
