// Package transport defines the duplex byte-message channel the signaling
// client runs over, plus the default websocket implementation.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send after the transport has been closed.
var ErrClosed = errors.New("transport is closed")

// ErrQueueFull is returned by Send when the outbound queue is saturated.
// Send never blocks waiting for the queue to drain.
var ErrQueueFull = errors.New("transport send queue is full")

// Handler receives asynchronous notifications from an open transport.
// Callbacks are invoked from the transport's read loop and must not block.
type Handler interface {
	// HandleMessage delivers one inbound signaling message.
	HandleMessage(payload []byte)

	// HandleError reports a transport failure. HandleClose always follows.
	HandleError(err error)

	// HandleClose fires exactly once when the transport stops, whether the
	// close was requested locally or caused by the peer or an error.
	HandleClose()
}

// Transport is a duplex channel carrying one signaling message per frame.
// Callbacks do not fire until Start is called, so the owner can finish wiring
// itself up between Dial and Start. Send never blocks: a saturated outbound
// queue yields ErrQueueFull instead of waiting.
type Transport interface {
	Start()
	Send(payload []byte) error
	Close() error
}

// Dialer opens transports. Dial blocks until the handshake completes or fails.
type Dialer interface {
	Dial(ctx context.Context, url string, handler Handler) (Transport, error)
}
