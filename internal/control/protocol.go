package control

import "main/internal/model"

// Message types exchanged with the control plane.
const (
	MessageHello  = "hello"
	MessageConfig = "config"
)

// Message is the wire envelope for the control plane websocket protocol.
//
// Only the config payload's exchange list is interpreted by this node;
// the remaining schema belongs to the control plane.
type Message struct {
	Type   string        `json:"type"`
	BotID  model.BotID   `json:"botId,omitempty"`
	Config *model.Config `json:"config,omitempty"`
}
