package websocket

import "errors"

var (
	// ErrInvalidMessage is returned when an inbound message cannot be parsed
	// or names no known action.
	ErrInvalidMessage = errors.New("invalid message")
)
