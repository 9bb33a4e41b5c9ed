package model

import "strconv"

// BotID identifies this node towards the control plane.
//
// It carries no invariant beyond fitting in 16 bits; it exists for
// identification and logging only.
type BotID uint16

// ParseBotID parses the BOT_ID environment value.
func ParseBotID(s string) (BotID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return BotID(v), nil
}

func (id BotID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
