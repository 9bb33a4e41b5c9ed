package exception

import "errors"

// Event bus errors
var (
	ErrQueueFull            = errors.New("bus: event queue full")
	ErrQueueClosed          = errors.New("bus: event queue closed")
	ErrPublishAborted       = errors.New("bus: publish aborted by shutdown")
	ErrFanoutOversubscribed = errors.New("bus: fanout consumers exhausted")
	ErrFanoutSealed         = errors.New("bus: fanout sealed, producer already started")
)
