package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/mockserver"
)

var (
	mockAddr     string
	mockInterval time.Duration
	mockQuiet    bool
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "🧪 Run a local mock backend",
	Long: `# 🧪 Mock Backend

**Serve the FocusAgent REST API and push feed without a vision model.**

The mock keeps one session in memory and plays a scripted loop of
check-ins, so the client's reconnect, countdown and banner can be tried
end to end.

## 🔌 Endpoints

- **GET /ping**
- **POST /session**, **GET /session**, **DELETE /session**
- **POST /analyze**
- **GET /ws** push feed

Stop it with Ctrl+C to watch clients reconnect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Configure(logger.GetLogLevelFromEnv(devMode), devMode)

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		opts := []mockserver.Option{mockserver.WithInterval(mockInterval)}
		if !mockQuiet {
			opts = append(opts, mockserver.WithRequestLog(os.Stdout))
		}
		server := mockserver.New(opts...)
		return server.ListenAndServe(ctx, mockAddr)
	},
}

func init() {
	mockCmd.Flags().StringVar(&mockAddr, "addr", mockserver.DefaultAddr, "Listen address")
	mockCmd.Flags().DurationVar(&mockInterval, "interval", mockserver.DefaultInterval, "Time between check-ins")
	mockCmd.Flags().BoolVarP(&mockQuiet, "quiet", "q", false, "Don't log each request")
	rootCmd.AddCommand(mockCmd)
}
