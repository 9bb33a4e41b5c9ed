package exception

import "errors"

var (
	ErrControlClosed       = errors.New("control: connection closed")
	ErrUnexpectedMessage   = errors.New("control: unexpected message type")
	ErrUnsupportedExchange = errors.New("market data: unsupported exchange")
)
