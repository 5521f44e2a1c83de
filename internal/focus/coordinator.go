package focus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/api"
	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/config"
	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/recovery"
	"github.com/focusagent/focusagent/internal/transport"
)

var (
	// ErrStopped is returned by operations issued after Run has returned
	ErrStopped = errors.New("focus coordinator stopped")
	// ErrAlreadyRunning is returned by a second call to Run
	ErrAlreadyRunning = errors.New("focus coordinator already running")
)

// SessionAPI is the REST surface the coordinator drives. *api.Client
// implements it.
type SessionAPI interface {
	StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error)
	GetSession(ctx context.Context) (*models.SessionSnapshot, error)
	EndSession(ctx context.Context) error
	Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error)
}

var _ SessionAPI = (*api.Client)(nil)

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock replaces the wall clock, for tests
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		co.base = c
	}
}

// WithOpener replaces the WebSocket transport
func WithOpener(o transport.Opener) Option {
	return func(co *Coordinator) {
		co.opener = o
	}
}

// WithLogger sets the logger used by the coordinator and its components
func WithLogger(l zerolog.Logger) Option {
	return func(co *Coordinator) {
		co.log = l
	}
}

// Coordinator owns every piece of client state: the push connection, the
// reconciled view, the countdown and the banner. All of it is mutated on a
// single event loop started by Run; other goroutines talk to it through
// the exported methods and read it through State and Subscribe.
type Coordinator struct {
	cfg    *config.Config
	api    SessionAPI
	base   clock.Clock
	opener transport.Opener
	log    zerolog.Logger

	queue   *eventQueue
	started atomic.Bool
	done    chan struct{}

	// loop-owned
	conn       *ConnectionManager
	reconciler *SessionReconciler
	countdown  *CountdownTimer
	banner     *BannerScheduler

	mu     sync.Mutex
	state  models.ClientState
	subs   map[int]chan models.ClientState
	nextID int
	closed bool
}

// New wires a coordinator. Nothing happens until Run is called.
func New(cfg *config.Config, sessions SessionAPI, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:   cfg,
		api:   sessions,
		base:  clock.Real{},
		log:   logger.Component("focus"),
		queue: newEventQueue(),
		done:  make(chan struct{}),
		subs:  make(map[int]chan models.ClientState),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.opener == nil {
		c.opener = transport.NewOpener(transport.WithLogger(c.log.With().Str("component", "transport").Logger()))
	}

	clk := loopClock{Clock: c.base, post: c.post}
	c.reconciler = NewSessionReconciler(c.log)
	c.countdown = NewCountdownTimer(clk, c.reconciler.SetRemaining)
	c.banner = NewBannerScheduler(clk, cfg.BannerHideDelay, func(visible bool) {
		c.log.Debug().Bool("visible", visible).Msg("banner")
	})
	c.conn = NewConnectionManager(ConnectionOptions{
		URL:       cfg.WSURL,
		Opener:    c.opener,
		Clock:     clk,
		Dispatch:  c.post,
		Delay:     cfg.ReconnectDelay,
		MaxDelay:  cfg.ReconnectMaxDelay,
		Logger:    c.log,
		OnMessage: func(msg models.PushMessage) { c.react(c.reconciler.ApplyPush(msg)) },
	})
	c.state = c.snapshot()
	return c
}

// Run connects, fetches the current session and processes events until
// ctx is cancelled. Timers and the Transport are released before it returns.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.shutdown()

	c.conn.Connect()
	c.publish()

	recovery.SafeGo("focus-initial-refresh", func() {
		if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("initial session fetch failed")
		}
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.queue.ready:
			for _, fn := range c.queue.drain() {
				fn()
			}
			c.publish()
		}
	}
}

// Done is closed once Run has returned and everything is released
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the latest published state
func (c *Coordinator) State() models.ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.View = st.View.Clone()
	return st
}

// Subscribe returns a channel that always holds the most recent state. A
// slow reader skips intermediate states. The channel is closed when the
// coordinator stops or cancel is called.
func (c *Coordinator) Subscribe() (<-chan models.ClientState, func()) {
	ch := make(chan models.ClientState, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// StartSession asks the backend to start a session and merges the
// returned snapshot
func (c *Coordinator) StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error) {
	var ticket Ticket
	if err := c.call(ctx, func() { ticket = c.reconciler.Ticket() }); err != nil {
		return nil, err
	}

	snap, err := c.api.StartSession(ctx, task, minutes)
	if err != nil {
		return nil, err
	}

	if err := c.call(ctx, func() { c.react(c.reconciler.ApplyCreatedSince(*snap, ticket)) }); err != nil {
		return nil, err
	}
	return snap, nil
}

// Refresh fetches the current session. No session is not an error.
func (c *Coordinator) Refresh(ctx context.Context) error {
	var ticket Ticket
	if err := c.call(ctx, func() { ticket = c.reconciler.Ticket() }); err != nil {
		return err
	}

	snap, err := c.api.GetSession(ctx)
	if err != nil {
		return err
	}

	return c.call(ctx, func() {
		if snap == nil {
			c.react(c.reconciler.ApplyNoSession(ticket))
			return
		}
		c.react(c.reconciler.ApplySnapshotSince(*snap, ticket))
	})
}

// EndSession clears the local session immediately, then tells the backend
func (c *Coordinator) EndSession(ctx context.Context) error {
	if err := c.call(ctx, func() { c.react(c.reconciler.EndSession()) }); err != nil {
		return err
	}
	return c.api.EndSession(ctx)
}

// Analyze requests an on-demand check-in. An empty task uses the current
// session's task.
func (c *Coordinator) Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		if err := c.call(ctx, func() {
			if t := c.reconciler.view.CurrentTask; t != nil {
				task = *t
			}
		}); err != nil {
			return nil, err
		}
	}
	if task == "" {
		return nil, fmt.Errorf("%w: no task to analyze", api.ErrInvalidInput)
	}
	return c.api.Analyze(ctx, task)
}

// react performs the side effects a merge asked for
func (c *Coordinator) react(ch Change) {
	if ch.Ignored {
		return
	}
	if ch.SessionEnded {
		c.countdown.Stop()
	}
	if ch.Seeded {
		if ch.Remaining > 0 {
			c.countdown.Start(ch.Remaining)
		} else {
			c.countdown.Stop()
		}
	}
	if ch.FocusSignaled {
		c.banner.OnFocusStateChanged(ch.Focus)
	}
}

// post queues fn for the loop. It never blocks.
func (c *Coordinator) post(fn func()) {
	c.queue.push(fn)
}

// call runs fn on the loop and waits until its effects are published
func (c *Coordinator) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	c.post(func() {
		fn()
		c.publish()
		close(finished)
	})

	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) snapshot() models.ClientState {
	return models.ClientState{
		View:          c.reconciler.View(),
		BannerVisible: c.banner.Visible(),
		Connection:    c.conn.Status(),
	}
}

// publish hands the current state to subscribers if it changed
func (c *Coordinator) publish() {
	st := c.snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || reflect.DeepEqual(st, c.state) {
		return
	}
	c.state = st
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (c *Coordinator) shutdown() {
	c.countdown.Stop()
	c.banner.Stop()
	c.conn.Teardown()
	c.publish()

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	close(c.done)
	c.log.Debug().Msg("coordinator stopped")
}

// eventQueue is an unbounded FIFO of closures. Pushing never blocks, so a
// Transport callback can always hand off its event even while the loop is
// busy closing that same Transport.
type eventQueue struct {
	mu    sync.Mutex
	items []func()
	ready chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

func (q *eventQueue) push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// loopClock delivers timer callbacks on the event loop
type loopClock struct {
	clock.Clock
	post func(func())
}

func (l loopClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return l.Clock.AfterFunc(d, func() { l.post(f) })
}
