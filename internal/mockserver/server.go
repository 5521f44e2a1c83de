package mockserver

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/logger"
	_ "github.com/focusagent/focusagent/internal/mockserver/docs"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/recovery"
)

// Defaults match the real backend
const (
	DefaultAddr       = "127.0.0.1:8000"
	DefaultInterval   = 10 * time.Second
	MinDuration       = 1
	MaxDuration       = 480
	analyzeFailedText = "Failed to analyze the screen."
)

// Server is a stand-in for the FocusAgent backend: one in-memory session,
// a push feed on /ws and a periodic analysis loop.
type Server struct {
	app      *fiber.App
	store    *Store
	hub      *Hub
	analyzer Analyzer
	interval time.Duration
	clock    clock.Clock
	log      zerolog.Logger
	access   io.Writer
}

// Option configures a Server
type Option func(*Server)

// WithAnalyzer replaces the scripted analyzer
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) {
		s.analyzer = a
	}
}

// WithInterval sets how often active sessions are analyzed
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		s.interval = d
	}
}

// WithClock replaces the wall clock used for session timing
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithLogger sets the server logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithRequestLog writes one access line per request to out
func WithRequestLog(out io.Writer) Option {
	return func(s *Server) {
		s.access = out
	}
}

// New builds the server and its routes
func New(opts ...Option) *Server {
	s := &Server{
		analyzer: DefaultAnalyzer(),
		interval: DefaultInterval,
		clock:    clock.Real{},
		log:      logger.Component("mockserver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewStore(s.clock)
	s.hub = NewHub(s.log)

	s.app = fiber.New(fiber.Config{
		AppName:               "FocusAgent mock backend",
		DisableStartupMessage: true,
	})
	s.app.Use(fiberrecover.New())
	if s.access != nil {
		s.app.Use(RequestLogger(s.access))
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173, http://127.0.0.1:5173",
		AllowCredentials: true,
	}))

	s.app.Get("/ping", s.handlePing)
	s.app.Post("/analyze", s.handleAnalyze)
	s.app.Post("/session", s.handleStartSession)
	s.app.Get("/session", s.handleGetSession)
	s.app.Delete("/session", s.handleEndSession)
	s.app.Get("/ws", s.handleWebSocket)
	s.app.Get("/swagger/*", swagger.HandlerDefault)

	return s
}

// App exposes the fiber app, mainly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the push hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Store returns the session store
func (s *Server) Store() *Store {
	return s.store
}

// ListenAndServe listens on addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server and the analysis loop on ln until ctx is
// cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	recovery.SafeGo("mock-analysis-loop", func() { s.analysisLoop(loopCtx) })
	recovery.SafeGo("mock-shutdown", func() {
		<-loopCtx.Done()
		s.hub.CloseAll()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.log.Warn().Err(err).Msg("shutdown")
		}
	})

	s.log.Info().Str("addr", ln.Addr().String()).Dur("interval", s.interval).Msg("mock backend listening")
	if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) analysisLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.AnalyzeOnce(ctx)
		}
	}
}

// AnalyzeOnce runs one pass of the analysis loop: expire the session, or
// analyze it and broadcast the result
func (s *Server) AnalyzeOnce(ctx context.Context) {
	sess := s.store.Get()
	if sess == nil {
		return
	}

	if s.store.Expired(sess) {
		s.store.Clear()
		s.log.Info().Str("task", sess.TaskDescription).Msg("session expired")
		s.hub.Broadcast(models.PushMessage{
			State:         models.State(models.FocusOnTask),
			SessionActive: models.Bool(false),
		})
		return
	}

	result, err := s.analyzer.Analyze(ctx, sess.TaskDescription)
	var captureErr *CaptureError
	switch {
	case errors.As(err, &captureErr):
		state := models.FocusOnTask
		if sess.LastState != nil {
			state = *sess.LastState
		}
		s.hub.Broadcast(models.PushMessage{
			State:         models.State(state),
			Task:          models.String(sess.TaskDescription),
			SessionActive: models.Bool(true),
			Error:         models.String(captureErr.Error()),
		})
		return
	case err != nil:
		s.log.Warn().Err(err).Msg("analysis failed")
		return
	}

	if s.store.UpdateResult(result.Summary, result.State) == nil {
		// Session ended while the analysis was running
		return
	}
	s.hub.Broadcast(models.PushMessage{
		State:         models.State(result.State),
		Summary:       models.String(result.Summary),
		Task:          models.String(sess.TaskDescription),
		Timestamp:     models.String(s.clock.Now().UTC().Format(time.RFC3339Nano)),
		SessionActive: models.Bool(true),
	})
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// handlePing is a liveness probe
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Router /ping [get]
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleAnalyze runs an on-demand check-in
// @Summary Analyze the screen against a task
// @Tags analyze
// @Accept json
// @Produce json
// @Success 200 {object} models.AnalyzeResult
// @Router /analyze [post]
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req models.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body.")
	}

	result, err := s.analyzer.Analyze(c.UserContext(), req.TaskDescription)
	var captureErr *CaptureError
	switch {
	case errors.As(err, &captureErr):
		return detail(c, fiber.StatusServiceUnavailable, captureErr.Error())
	case err != nil:
		s.log.Warn().Err(err).Msg("analyze failed")
		return detail(c, fiber.StatusInternalServerError, analyzeFailedText)
	}
	return c.JSON(result)
}

// handleStartSession replaces the session and announces it
// @Summary Start a work session
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} models.SessionSnapshot
// @Router /session [post]
func (s *Server) handleStartSession(c *fiber.Ctx) error {
	var req models.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body.")
	}
	if strings.TrimSpace(req.TaskDescription) == "" {
		return detail(c, fiber.StatusBadRequest, "Task description cannot be empty.")
	}
	if req.DurationMinutes < MinDuration || req.DurationMinutes > MaxDuration {
		return detail(c, fiber.StatusBadRequest, "Duration must be between 1 and 480 minutes.")
	}

	sess := s.store.Set(req.TaskDescription, req.DurationMinutes)
	s.log.Info().Str("task", sess.TaskDescription).Int("minutes", req.DurationMinutes).Msg("session started")

	s.hub.Broadcast(models.PushMessage{
		State:         models.State(models.FocusOnTask),
		Task:          models.String(sess.TaskDescription),
		SessionActive: models.Bool(true),
	})
	return c.JSON(s.store.Snapshot(sess))
}

// handleGetSession returns the active session or 404
// @Summary Get the active session
// @Tags session
// @Produce json
// @Success 200 {object} models.SessionSnapshot
// @Failure 404 {object} map[string]string
// @Router /session [get]
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess := s.store.Get()
	if sess == nil || s.store.Expired(sess) {
		s.store.Clear()
		return detail(c, fiber.StatusNotFound, "No active session.")
	}
	return c.JSON(s.store.Snapshot(sess))
}

// handleEndSession clears the session and announces it
// @Summary End the active session
// @Tags session
// @Produce json
// @Router /session [delete]
func (s *Server) handleEndSession(c *fiber.Ctx) error {
	s.store.Clear()
	s.hub.Broadcast(models.PushMessage{
		State:         models.State(models.FocusOnTask),
		SessionActive: models.Bool(false),
	})
	return c.JSON(fiber.Map{"status": "ended"})
}

// handleWebSocket upgrades to the push feed
// @Summary Push feed of focus updates
// @Tags push
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (s *Server) handleWebSocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(s.hub.serve)(c)
	}
	return fiber.ErrUpgradeRequired
}
