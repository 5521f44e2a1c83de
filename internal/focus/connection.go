package focus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/transport"
)

// ConnectionManager keeps one push connection alive. It owns at most one
// Transport and at most one pending reconnect timer.
//
// It is not safe for concurrent use: every method, and every callback it
// schedules, must run on the owner's event loop. Transport events reach it
// through dispatch, which the owner binds to that loop.
type ConnectionManager struct {
	url       string
	open      transport.Opener
	clock     clock.Clock
	dispatch  func(func())
	baseDelay time.Duration
	maxDelay  time.Duration
	log       zerolog.Logger

	onMessage func(models.PushMessage)
	onStatus  func(models.ConnectionStatus)

	status   models.ConnectionStatus
	current  transport.Transport
	connID   string
	gen      uint64
	retry    clock.Timer
	retryGen uint64
	failures int
	opening  bool
}

// ConnectionOptions configures a ConnectionManager
type ConnectionOptions struct {
	URL    string
	Opener transport.Opener
	Clock  clock.Clock
	// Dispatch runs transport events on the owner's loop. Nil runs them inline.
	Dispatch func(func())
	// Delay before a reconnect attempt. MaxDelay above Delay enables doubling
	// per consecutive failure up to MaxDelay.
	Delay     time.Duration
	MaxDelay  time.Duration
	Logger    zerolog.Logger
	OnMessage func(models.PushMessage)
	OnStatus  func(models.ConnectionStatus)
}

// NewConnectionManager creates a manager in the Disconnected state
func NewConnectionManager(opts ConnectionOptions) *ConnectionManager {
	m := &ConnectionManager{
		url:       opts.URL,
		open:      opts.Opener,
		clock:     opts.Clock,
		dispatch:  opts.Dispatch,
		baseDelay: opts.Delay,
		maxDelay:  opts.MaxDelay,
		log:       opts.Logger,
		onMessage: opts.OnMessage,
		onStatus:  opts.OnStatus,
		status:    models.ConnectionDisconnected,
	}
	if m.clock == nil {
		m.clock = clock.Real{}
	}
	if m.dispatch == nil {
		m.dispatch = func(fn func()) { fn() }
	}
	return m
}

// Status returns the current connection state
func (m *ConnectionManager) Status() models.ConnectionStatus {
	return m.status
}

// ConnID identifies the current Transport generation in logs
func (m *ConnectionManager) ConnID() string {
	return m.connID
}

// RetryPending reports whether a reconnect timer is scheduled
func (m *ConnectionManager) RetryPending() bool {
	return m.retry != nil
}

// Connect opens a Transport unless one is already live. A pending retry is
// superseded by the immediate attempt.
func (m *ConnectionManager) Connect() {
	if m.current != nil || m.opening {
		return
	}
	m.cancelRetry()
	m.dial()
}

// Send writes to the live Transport
func (m *ConnectionManager) Send(data []byte) error {
	if m.current == nil || m.status != models.ConnectionConnected {
		return transport.ErrNotConnected
	}
	return m.current.Send(data)
}

// Teardown cancels any pending retry and releases the Transport. Idempotent.
func (m *ConnectionManager) Teardown() {
	m.cancelRetry()
	m.discard()
	m.failures = 0
	m.setStatus(models.ConnectionDisconnected)
}

func (m *ConnectionManager) dial() {
	// A stale Transport must never outlive the attempt that replaces it
	m.discard()

	m.gen++
	m.connID = uuid.NewString()
	m.setStatus(models.ConnectionConnecting)
	m.log.Debug().Str("conn_id", m.connID).Str("url", m.url).Msg("connecting")

	// Openers may report events before returning, so the attempt counts as
	// live while open runs
	gen := m.gen
	m.opening = true
	t := m.open(m.url, &connHandler{m: m, gen: gen})
	m.opening = false

	if gen != m.gen {
		// Closed or replaced from inside open
		if t != nil {
			_ = t.Close()
		}
		return
	}
	m.current = t
}

// discard detaches and closes the current Transport, if any
func (m *ConnectionManager) discard() {
	m.gen++
	if m.current == nil {
		return
	}
	t := m.current
	m.current = nil
	if err := t.Close(); err != nil {
		m.log.Debug().Err(err).Str("conn_id", m.connID).Msg("closing transport")
	}
}

func (m *ConnectionManager) live(gen uint64) bool {
	return gen == m.gen && (m.current != nil || m.opening)
}

func (m *ConnectionManager) handleOpen(gen uint64) {
	if !m.live(gen) {
		return
	}
	m.failures = 0
	m.setStatus(models.ConnectionConnected)
	m.log.Info().Str("conn_id", m.connID).Str("url", m.url).Msg("connected")
}

func (m *ConnectionManager) handleMessage(gen uint64, data []byte) {
	if !m.live(gen) {
		return
	}

	var msg models.PushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		m.log.Warn().Err(err).Str("conn_id", m.connID).Int("bytes", len(data)).Msg("discarding malformed push message")
		return
	}
	if m.onMessage != nil {
		m.onMessage(msg)
	}
}

func (m *ConnectionManager) handleClose(gen uint64, err error) {
	if !m.live(gen) {
		return
	}

	event := m.log.Info()
	if err != nil {
		event = m.log.Warn().Err(err)
	}
	event.Str("conn_id", m.connID).Msg("connection lost")

	m.discard()
	m.setStatus(models.ConnectionDisconnected)
	m.scheduleReconnect()
}

// scheduleReconnect arms the single reconnect timer. A second call while
// one is pending does nothing.
func (m *ConnectionManager) scheduleReconnect() {
	if m.retry != nil {
		return
	}

	delay := m.nextDelay()
	m.failures++
	m.retryGen++
	gen := m.retryGen

	m.setStatus(models.ConnectionRetrying)
	m.log.Debug().Dur("delay", delay).Int("attempt", m.failures).Msg("reconnect scheduled")

	m.retry = m.clock.AfterFunc(delay, func() {
		if gen != m.retryGen || m.retry == nil {
			return
		}
		m.retry = nil
		m.dial()
	})
}

func (m *ConnectionManager) cancelRetry() {
	m.retryGen++
	if m.retry == nil {
		return
	}
	m.retry.Stop()
	m.retry = nil
}

func (m *ConnectionManager) nextDelay() time.Duration {
	if m.maxDelay <= m.baseDelay {
		return m.baseDelay
	}
	delay := m.baseDelay
	for i := 0; i < m.failures && delay < m.maxDelay; i++ {
		delay *= 2
	}
	if delay > m.maxDelay {
		delay = m.maxDelay
	}
	return delay
}

func (m *ConnectionManager) setStatus(s models.ConnectionStatus) {
	if m.status == s {
		return
	}
	m.log.Debug().Str("from", string(m.status)).Str("to", string(s)).Msg("connection status")
	m.status = s
	if m.onStatus != nil {
		m.onStatus(s)
	}
}

// connHandler binds transport callbacks to one Transport generation
type connHandler struct {
	m   *ConnectionManager
	gen uint64
}

func (h *connHandler) OnOpen() {
	h.m.dispatch(func() { h.m.handleOpen(h.gen) })
}

func (h *connHandler) OnMessage(data []byte) {
	h.m.dispatch(func() { h.m.handleMessage(h.gen, data) })
}

func (h *connHandler) OnClose(err error) {
	h.m.dispatch(func() { h.m.handleClose(h.gen, err) })
}
