package transport

import (
	"context"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const sendQueueSize = 32

// WebSocketDialer opens websocket transports. The zero value is usable.
type WebSocketDialer struct {
	// Dialer overrides the underlying websocket dialer. Defaults to
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Logger receives transport-level diagnostics. Defaults to a discard logger.
	Logger logr.Logger
}

func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{}
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string, handler Handler) (Transport, error) {
	wsDialer := d.Dialer
	if wsDialer == nil {
		wsDialer = websocket.DefaultDialer
	}
	conn, resp, err := wsDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &webSocketTransport{
		conn:    conn,
		handler: handler,
		logger:  logger,
		sendCh:  make(chan []byte, sendQueueSize),
		closeCh: make(chan struct{}),
	}, nil
}

type webSocketTransport struct {
	conn    *websocket.Conn
	handler Handler
	logger  logr.Logger
	sendCh  chan []byte
	closeCh chan struct{}
	closed  int32
}

func (t *webSocketTransport) Start() {
	go t.run()
}

func (t *webSocketTransport) Send(payload []byte) error {
	if atomic.LoadInt32(&t.closed) > 0 {
		return ErrClosed
	}
	select {
	case t.sendCh <- payload:
		return nil
	case <-t.closeCh:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

func (t *webSocketTransport) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	close(t.closeCh)
	return t.conn.Close()
}

func (t *webSocketTransport) run() {
	group := new(errgroup.Group)
	group.Go(t.writeLoop)

	readErr := t.readLoop()
	requested := atomic.LoadInt32(&t.closed) > 0
	t.Close()
	writeErr := group.Wait()

	if !requested {
		if readErr != nil {
			t.handler.HandleError(readErr)
		} else if writeErr != nil {
			t.handler.HandleError(writeErr)
		}
	}
	t.handler.HandleClose()
}

func (t *webSocketTransport) readLoop() error {
	for {
		msgType, payload, err := t.conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.BinaryMessage {
			t.logger.V(1).Info("ignoring non-binary frame", "type", msgType)
			continue
		}
		t.handler.HandleMessage(payload)
	}
}

func (t *webSocketTransport) writeLoop() error {
	for {
		select {
		case payload := <-t.sendCh:
			if err := t.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				// the reader is stuck on a broken connection, unblock it
				t.conn.Close()
				return err
			}
		case <-t.closeCh:
			return nil
		}
	}
}
