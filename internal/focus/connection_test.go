package focus

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/transport"
)

const testDelay = 3 * time.Second

func TestConnectionManager_Connect(t *testing.T) {
	network := &fakeNetwork{}
	m, _, statuses := newTestConnection(network, clock.NewFake(epoch), testDelay, 0)

	assert.Equal(t, models.ConnectionDisconnected, m.Status())

	m.Connect()
	require.Equal(t, 1, network.count())
	assert.Equal(t, "ws://backend.test/ws", network.last().url)
	assert.Equal(t, models.ConnectionConnecting, m.Status())
	assert.NotEmpty(t, m.ConnID())

	network.last().open()
	assert.Equal(t, models.ConnectionConnected, m.Status())

	// A live Transport is never replaced by Connect
	m.Connect()
	assert.Equal(t, 1, network.count())

	assert.Equal(t, []models.ConnectionStatus{
		models.ConnectionConnecting,
		models.ConnectionConnected,
	}, *statuses)
}

func TestConnectionManager_ReconnectsOncePerDrop(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, _, _ := newTestConnection(network, clk, testDelay, 0)

	m.Connect()
	first := network.last()
	first.open()

	first.fail(errors.New("connection reset"))
	assert.True(t, first.isClosed(), "dropped transport must be closed")
	assert.Equal(t, models.ConnectionRetrying, m.Status())
	assert.True(t, m.RetryPending())
	assert.Equal(t, 1, clk.Pending())

	// A second close from the same generation schedules nothing more
	first.handler.OnClose(errors.New("again"))
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(testDelay - time.Millisecond)
	assert.Equal(t, 1, network.count(), "no attempt before the delay elapses")

	clk.Advance(time.Millisecond)
	assert.Equal(t, 2, network.count(), "exactly one attempt after the delay")
	assert.Equal(t, models.ConnectionConnecting, m.Status())
	assert.False(t, m.RetryPending())

	// A failed attempt retries again after the same fixed delay
	network.last().fail(errors.New("refused"))
	assert.Equal(t, 1, clk.Pending())
	clk.Advance(testDelay)
	assert.Equal(t, 3, network.count())
}

func TestConnectionManager_CleanCloseAlsoReconnects(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, _, _ := newTestConnection(network, clk, testDelay, 0)

	m.Connect()
	network.last().open()
	network.last().fail(nil)

	assert.Equal(t, models.ConnectionRetrying, m.Status())
	clk.Advance(testDelay)
	assert.Equal(t, 2, network.count())
}

func TestConnectionManager_IgnoresStaleGeneration(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, msgs, _ := newTestConnection(network, clk, testDelay, 0)

	m.Connect()
	stale := network.last()
	stale.open()
	stale.fail(errors.New("dropped"))
	clk.Advance(testDelay)
	require.Equal(t, 2, network.count())

	// Events that were already in flight from the old Transport
	stale.handler.OnOpen()
	stale.handler.OnMessage([]byte(`{"state":"off_task"}`))
	stale.handler.OnClose(errors.New("late"))

	assert.Equal(t, models.ConnectionConnecting, m.Status())
	assert.Empty(t, *msgs)
	assert.Equal(t, 0, clk.Pending())

	network.last().open()
	assert.Equal(t, models.ConnectionConnected, m.Status())
}

func TestConnectionManager_DiscardsMalformedMessages(t *testing.T) {
	network := &fakeNetwork{}
	m, msgs, _ := newTestConnection(network, clock.NewFake(epoch), testDelay, 0)

	m.Connect()
	tr := network.last()
	tr.open()

	tr.message(`not json`)
	tr.message(`{"state":`)
	assert.Empty(t, *msgs)
	assert.Equal(t, models.ConnectionConnected, m.Status(), "parse failures do not drop the connection")

	tr.message(`{"state":"off_task","summary":"Watching videos"}`)
	require.Len(t, *msgs, 1)
	require.NotNil(t, (*msgs)[0].State)
	assert.Equal(t, models.FocusOffTask, *(*msgs)[0].State)
}

func TestConnectionManager_Teardown(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, _, _ := newTestConnection(network, clk, testDelay, 0)

	m.Connect()
	network.last().fail(errors.New("refused"))
	require.True(t, m.RetryPending())

	m.Teardown()
	assert.Equal(t, 0, clk.Pending())
	assert.False(t, m.RetryPending())
	assert.Equal(t, models.ConnectionDisconnected, m.Status())

	m.Teardown()
	assert.Equal(t, models.ConnectionDisconnected, m.Status())

	clk.Advance(time.Minute)
	assert.Equal(t, 1, network.count(), "a cancelled retry never fires")

	m.Connect()
	tr := network.last()
	tr.open()
	m.Teardown()
	assert.True(t, tr.isClosed())
	assert.ErrorIs(t, m.Send([]byte("x")), transport.ErrNotConnected)
}

func TestConnectionManager_ConnectSupersedesRetry(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, _, _ := newTestConnection(network, clk, testDelay, 0)

	m.Connect()
	network.last().fail(errors.New("refused"))
	require.True(t, m.RetryPending())

	m.Connect()
	assert.Equal(t, 2, network.count())
	assert.False(t, m.RetryPending())
	assert.Equal(t, 0, clk.Pending())
}

func TestConnectionManager_Send(t *testing.T) {
	network := &fakeNetwork{}
	m, _, _ := newTestConnection(network, clock.NewFake(epoch), testDelay, 0)

	assert.ErrorIs(t, m.Send([]byte("early")), transport.ErrNotConnected)

	m.Connect()
	assert.ErrorIs(t, m.Send([]byte("connecting")), transport.ErrNotConnected)

	network.last().open()
	require.NoError(t, m.Send([]byte("hello")))
	assert.Equal(t, [][]byte{[]byte("hello")}, network.last().sent)
}

func TestConnectionManager_Backoff(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		max      time.Duration
		failures int
		want     time.Duration
	}{
		{"fixed by default", time.Second, 0, 5, time.Second},
		{"max below base stays fixed", time.Second, 500 * time.Millisecond, 3, time.Second},
		{"first attempt uses base", time.Second, 10 * time.Second, 0, time.Second},
		{"doubles", time.Second, 10 * time.Second, 2, 4 * time.Second},
		{"capped", time.Second, 10 * time.Second, 6, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestConnection(&fakeNetwork{}, clock.NewFake(epoch), tt.base, tt.max)
			m.failures = tt.failures
			assert.Equal(t, tt.want, m.nextDelay())
		})
	}
}

func TestConnectionManager_BackoffResetsOnOpen(t *testing.T) {
	network := &fakeNetwork{}
	clk := clock.NewFake(epoch)
	m, _, _ := newTestConnection(network, clk, time.Second, 8*time.Second)

	m.Connect()
	network.last().fail(errors.New("refused")) // retry in 1s
	clk.Advance(time.Second)
	network.last().fail(errors.New("refused")) // retry in 2s

	clk.Advance(time.Second)
	assert.Equal(t, 2, network.count())
	clk.Advance(time.Second)
	assert.Equal(t, 3, network.count())

	network.last().open()
	network.last().fail(errors.New("dropped")) // back to 1s
	clk.Advance(time.Second)
	assert.Equal(t, 4, network.count())
}

func TestConnectionManager_SynchronousOpener(t *testing.T) {
	clk := clock.NewFake(epoch)
	var opened []*fakeTransport
	var msgs []models.PushMessage
	var failNext bool

	m := NewConnectionManager(ConnectionOptions{
		URL:   "ws://backend.test/ws",
		Clock: clk,
		Delay: testDelay,
		Opener: func(url string, h transport.Handler) transport.Transport {
			tr := &fakeTransport{url: url, handler: h}
			opened = append(opened, tr)
			if failNext {
				h.OnClose(errors.New("refused"))
				return tr
			}
			h.OnOpen()
			h.OnMessage([]byte(`{"state":"off_task"}`))
			return tr
		},
		Logger:    zerolog.Nop(),
		OnMessage: func(msg models.PushMessage) { msgs = append(msgs, msg) },
	})

	m.Connect()
	assert.Equal(t, models.ConnectionConnected, m.Status())
	assert.Len(t, msgs, 1, "events delivered before open returns are kept")
	require.NoError(t, m.Send([]byte("hello")))

	// A failure reported from inside open leaves no live Transport behind
	failNext = true
	opened[0].fail(errors.New("dropped"))
	require.True(t, m.RetryPending())
	clk.Advance(testDelay)

	require.Len(t, opened, 2)
	assert.True(t, opened[1].isClosed())
	assert.True(t, m.RetryPending())
	assert.ErrorIs(t, m.Send([]byte("x")), transport.ErrNotConnected)
}
