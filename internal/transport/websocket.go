package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/recovery"
)

const closeGracePeriod = time.Second

// ErrNotConnected is returned by Send before the connection opens or after it closes
var ErrNotConnected = errors.New("not connected")

// WebSocket is a Transport over gorilla/websocket
type WebSocket struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger
	cancel context.CancelFunc

	mu       sync.Mutex
	conn     *websocket.Conn
	handler  Handler
	detached bool
	closed   bool

	// serializes handler callbacks so Close can wait out an in-flight one
	deliver sync.Mutex
}

// WebSocketOption configures a WebSocket transport
type WebSocketOption func(*WebSocket)

// WithDialer sets a custom dialer
func WithDialer(d *websocket.Dialer) WebSocketOption {
	return func(w *WebSocket) {
		w.dialer = d
	}
}

// WithLogger sets the logger used for connection diagnostics
func WithLogger(l zerolog.Logger) WebSocketOption {
	return func(w *WebSocket) {
		w.log = l
	}
}

// NewOpener returns an Opener that dials WebSocket transports with opts
func NewOpener(opts ...WebSocketOption) Opener {
	return func(url string, h Handler) Transport {
		return OpenWebSocket(url, h, opts...)
	}
}

// OpenWebSocket starts dialing url in the background and returns immediately
func OpenWebSocket(url string, h Handler, opts ...WebSocketOption) *WebSocket {
	ctx, cancel := context.WithCancel(context.Background())
	w := &WebSocket{
		url:     url,
		dialer:  websocket.DefaultDialer,
		log:     logger.Component("transport"),
		cancel:  cancel,
		handler: h,
	}
	for _, opt := range opts {
		opt(w)
	}

	recovery.SafeGo("websocket-transport", func() {
		w.run(ctx)
	})
	return w
}

func (w *WebSocket) run(ctx context.Context) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		w.log.Debug().Err(err).Str("url", w.url).Msg("dial failed")
		w.finish(fmt.Errorf("dial %s: %w", w.url, err))
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		_ = conn.Close()
		return
	}
	w.conn = conn
	w.mu.Unlock()

	w.emit(func(h Handler) { h.OnOpen() })

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.finish(nil)
			} else {
				w.finish(fmt.Errorf("read: %w", err))
			}
			return
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			w.emit(func(h Handler) { h.OnMessage(data) })
		}
	}
}

// emit delivers an event unless the handler has been detached
func (w *WebSocket) emit(fn func(Handler)) {
	w.deliver.Lock()
	defer w.deliver.Unlock()

	w.mu.Lock()
	h := w.handler
	detached := w.detached
	w.mu.Unlock()

	if detached || h == nil {
		return
	}
	fn(h)
}

// finish delivers the terminal OnClose event exactly once
func (w *WebSocket) finish(err error) {
	w.deliver.Lock()
	defer w.deliver.Unlock()

	w.mu.Lock()
	h := w.handler
	detached := w.detached
	w.detached = true
	w.handler = nil
	w.mu.Unlock()

	if detached || h == nil {
		return
	}
	h.OnClose(err)
}

// Send writes a text frame
func (w *WebSocket) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil || w.closed {
		return ErrNotConnected
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Close detaches the handler, then closes the connection
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.detached = true
	w.handler = nil
	conn := w.conn
	w.mu.Unlock()

	w.cancel()

	// Wait for any callback already running so none can follow Close
	w.deliver.Lock()
	w.deliver.Unlock() //nolint:staticcheck // barrier

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod),
	)
	return conn.Close()
}
