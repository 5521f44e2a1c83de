package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/focusagent/focusagent/internal/api"
	"github.com/focusagent/focusagent/internal/config"
	"github.com/focusagent/focusagent/internal/focus"
	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/recovery"
	"github.com/focusagent/focusagent/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "🖥️  Start the interactive focus client",
	Long: `# 🖥️  Run FocusAgent

**Connect to the backend and show the live session screen.**

The client keeps one push connection open and reconnects on its own when
the backend goes away. The countdown ticks locally between snapshots, and
the off-task banner hides a few seconds after the last off-task signal.

## ⌨️  Keys

- **s** start a session
- **e** end the session
- **r** refresh from the backend
- **a** request a check-in now
- **q** quit

When stdin is not a terminal the client falls back to **watch** output.

Logs go to a file while the screen is active (see **log_file** in the
config or **FOCUSAGENT_LOG_FILE**).`,
	RunE: runInteractive,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "👀 Stream state changes as log lines",
	Long: `# 👀 Watch

**Run the client headless and log every state change.**

Useful for scripting, debugging a backend, or running over SSH without a
full-screen terminal. Stops on Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

// newCoordinator builds the client stack for cfg
func newCoordinator(cfg *config.Config) *focus.Coordinator {
	client := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.RequestTimeout))
	return focus.New(cfg, client)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	recovery.SafeGo("signal-handler", func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Infof("🛑 Received signal %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	})
	return ctx, cancel
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Configure(logger.GetLogLevelFromEnv(cfg.Dev), cfg.Dev)
		logger.Warnf("⚠️  No terminal attached, falling back to watch mode")
		return watch(cmd.Context(), cfg, os.Stdout)
	}

	// Keep log lines off the alt screen
	closer, err := logger.ConfigureFile(logger.GetLogLevelFromEnv(cfg.Dev), cfg.Dev, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	coord := newCoordinator(cfg)
	stopped, runErr := startCoordinator(ctx, cancel, coord)

	app := tui.NewApp(coord, cfg.RequestTimeout)
	uiErr := app.Run(ctx)

	cancel()
	<-stopped
	if *runErr != nil {
		return *runErr
	}
	return uiErr
}

// startCoordinator runs coord in the background. The returned channel is
// closed once it has stopped, after which the error pointer is safe to read.
// A coordinator that stops on its own cancels ctx so the caller unwinds too.
func startCoordinator(ctx context.Context, cancel context.CancelFunc, coord *focus.Coordinator) (<-chan struct{}, *error) {
	stopped := make(chan struct{})
	var runErr error
	recovery.SafeGoWithCleanup("coordinator", func() {
		runErr = coord.Run(ctx)
	}, func() {
		cancel()
		close(stopped)
	})
	return stopped, &runErr
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Configure(logger.GetLogLevelFromEnv(cfg.Dev), cfg.Dev)
	return watch(cmd.Context(), cfg, os.Stdout)
}

// watch runs the client until interrupted, writing one line per published state
func watch(parent context.Context, cfg *config.Config, out io.Writer) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	coord := newCoordinator(cfg)
	states, unsubscribe := coord.Subscribe()
	defer unsubscribe()

	stopped, runErr := startCoordinator(ctx, cancel, coord)

	logger.Infof("👀 Watching %s", cfg.WSURL)
	for state := range states {
		fmt.Fprintln(out, formatState(state))
	}

	<-stopped
	if errors.Is(*runErr, context.Canceled) {
		return nil
	}
	return *runErr
}

// formatState renders one published state as a single line
func formatState(s models.ClientState) string {
	v := s.View
	task := "-"
	if v.CurrentTask != nil {
		task = *v.CurrentTask
	}
	line := fmt.Sprintf("[%s] %s | task=%q | timer=%s", s.Connection, v.FocusState.Label(), task, v.FormatRemaining())
	if v.TimerRunning {
		line += " running"
	}
	if s.BannerVisible {
		line += " | BANNER"
	}
	switch {
	case v.LastError != nil:
		line += " | error: " + *v.LastError
	case v.LastSummary != nil:
		line += " | " + *v.LastSummary
	}
	return line
}
