package focus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/transport"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeTransport is driven by the test instead of a socket. After Close it
// stops delivering, like the real one, but tests can still reach the raw
// handler to simulate a late event from a discarded generation.
type fakeTransport struct {
	mu      sync.Mutex
	url     string
	handler transport.Handler
	sent    [][]byte
	closed  bool
}

func (t *fakeTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return transport.ErrNotConnected
	}
	t.sent = append(t.sent, data)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *fakeTransport) deliver(fn func(transport.Handler)) {
	if t.isClosed() {
		return
	}
	fn(t.handler)
}

func (t *fakeTransport) open() {
	t.deliver(func(h transport.Handler) { h.OnOpen() })
}

func (t *fakeTransport) message(raw string) {
	t.deliver(func(h transport.Handler) { h.OnMessage([]byte(raw)) })
}

func (t *fakeTransport) push(tb testing.TB, msg models.PushMessage) {
	tb.Helper()
	data, err := json.Marshal(msg)
	require.NoError(tb, err)
	t.message(string(data))
}

func (t *fakeTransport) fail(err error) {
	t.deliver(func(h transport.Handler) { h.OnClose(err) })
}

// fakeNetwork records every Transport opened through it
type fakeNetwork struct {
	mu     sync.Mutex
	opened []*fakeTransport
}

func (n *fakeNetwork) Open(url string, h transport.Handler) transport.Transport {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := &fakeTransport{url: url, handler: h}
	n.opened = append(n.opened, t)
	return t
}

func (n *fakeNetwork) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.opened)
}

func (n *fakeNetwork) last() *fakeTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.opened) == 0 {
		return nil
	}
	return n.opened[len(n.opened)-1]
}

// stubSessions is an in-memory SessionAPI
type stubSessions struct {
	mu       sync.Mutex
	snapshot *models.SessionSnapshot
	err      error
	analyze  *models.AnalyzeResult
	ended    int
	// gate, when set, holds GetSession until the test releases it
	gate chan struct{}
	// startGate, when set, holds StartSession until the test releases it;
	// startEntered is signalled once the request is in flight
	startGate    chan struct{}
	startEntered chan struct{}
	// lastAnalyzed is the task sent to Analyze
	lastAnalyzed string
}

func (s *stubSessions) StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	gate, entered := s.startGate, s.startEntered
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.snapshot = &models.SessionSnapshot{
		TaskDescription:  task,
		SecondsRemaining: minutes * 60,
		SessionActive:    true,
	}
	out := *s.snapshot
	return &out, nil
}

func (s *stubSessions) GetSession(ctx context.Context) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.snapshot == nil {
		return nil, nil
	}
	out := *s.snapshot
	return &out, nil
}

func (s *stubSessions) EndSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended++
	s.snapshot = nil
	return s.err
}

func (s *stubSessions) Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAnalyzed = task
	if s.err != nil {
		return nil, s.err
	}
	return s.analyze, nil
}

func (s *stubSessions) endedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// newTestConnection builds a manager that runs every callback inline
func newTestConnection(net *fakeNetwork, clk clock.Clock, delay, maxDelay time.Duration) (*ConnectionManager, *[]models.PushMessage, *[]models.ConnectionStatus) {
	var msgs []models.PushMessage
	var statuses []models.ConnectionStatus
	m := NewConnectionManager(ConnectionOptions{
		URL:       "ws://backend.test/ws",
		Opener:    net.Open,
		Clock:     clk,
		Delay:     delay,
		MaxDelay:  maxDelay,
		Logger:    zerolog.Nop(),
		OnMessage: func(msg models.PushMessage) { msgs = append(msgs, msg) },
		OnStatus:  func(s models.ConnectionStatus) { statuses = append(statuses, s) },
	})
	return m, &msgs, &statuses
}
