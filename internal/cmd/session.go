package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/focusagent/focusagent/internal/api"
	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
)

var (
	startTask    string
	startMinutes int
	analyzeTask  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "📋 Show the backend's current session",
	Long: `# 📋 Status

**Check that the backend is reachable and print the active session.**`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return printStatus(cmd.Context(), client, os.Stdout)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "▶️  Start a focus session",
	Long: `# ▶️  Start

**Start a timed focus session on the backend.**

` + "```bash\nfocusagent start --task \"Write report\" --minutes 25\n```",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := client.StartSession(cmd.Context(), startTask, startMinutes)
		if err != nil {
			return fmt.Errorf("%s", api.FormatError(err))
		}
		fmt.Printf("✅ Started %q, %s remaining\n", snap.TaskDescription, models.FormatSeconds(&snap.SecondsRemaining))
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "⏹️  End the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.EndSession(cmd.Context()); err != nil {
			return fmt.Errorf("%s", api.FormatError(err))
		}
		fmt.Println("⏹️  Session ended")
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "🤖 Request a check-in now",
	Long: `# 🤖 Analyze

**Ask the backend to classify the current screen against a task.**

Without **--task** the active session's task is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		task := analyzeTask
		if task == "" {
			snap, err := client.GetSession(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.FormatError(err))
			}
			if snap == nil || !snap.SessionActive {
				return fmt.Errorf("no active session, pass --task")
			}
			task = snap.TaskDescription
		}
		result, err := client.Analyze(cmd.Context(), task)
		if err != nil {
			return fmt.Errorf("%s", api.FormatError(err))
		}
		fmt.Printf("%s %s: %s\n", stateIcon(result.State), result.State.Label(), result.Summary)
		return nil
	},
}

func init() {
	startCmd.Flags().StringVarP(&startTask, "task", "t", "", "What you intend to work on")
	startCmd.Flags().IntVarP(&startMinutes, "minutes", "m", 25, "Session length in minutes")
	_ = startCmd.MarkFlagRequired("task")

	analyzeCmd.Flags().StringVarP(&analyzeTask, "task", "t", "", "Task to check against (default: active session)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func newAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Configure(logger.GetLogLevelFromEnv(cfg.Dev), cfg.Dev)
	return api.NewClient(cfg.APIURL, api.WithTimeout(cfg.RequestTimeout)), nil
}

func printStatus(ctx context.Context, client *api.Client, out io.Writer) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("%s", api.FormatError(err))
	}
	fmt.Fprintf(out, "🟢 Backend reachable at %s\n", client.BaseURL())

	snap, err := client.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("%s", api.FormatError(err))
	}
	if snap == nil || !snap.SessionActive {
		fmt.Fprintln(out, "No active session")
		return nil
	}

	fmt.Fprintf(out, "🎯 Task:      %s\n", snap.TaskDescription)
	fmt.Fprintf(out, "⏱️  Remaining: %s\n", models.FormatSeconds(&snap.SecondsRemaining))
	if snap.LastState != nil {
		fmt.Fprintf(out, "%s State:     %s\n", stateIcon(*snap.LastState), snap.LastState.Label())
	}
	if snap.LastSummary != nil {
		fmt.Fprintf(out, "💬 Summary:   %s\n", *snap.LastSummary)
	}
	return nil
}

func stateIcon(s models.FocusState) string {
	if s == models.FocusOffTask {
		return "🔴"
	}
	return "🟢"
}
