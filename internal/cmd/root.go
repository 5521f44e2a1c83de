package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/focusagent/focusagent/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "focusagent",
	Short: "🎯 FocusAgent - Stay on task with live focus check-ins",
	Long: `# 🎯 FocusAgent

**A terminal client for the FocusAgent backend.**

## ✨ Features

- 🖥️  **Interactive TUI** with session planner and countdown
- 📡 **Live push feed** that survives backend restarts
- 🚨 **Off-task banner** that appears the moment you drift
- 🤖 **AI check-ins** streamed from the backend
- 🧪 **Mock backend** for working without a model

## 🚀 Getting Started

Run **focusagent mock** in one terminal and **focusagent run** in another.

Use **focusagent run --help** for detailed options.`,
	SilenceUsage: true,
}

// Global flags
var (
	configPath string
	wsURL      string
	apiURL     string
	devMode    bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.focusagent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&wsURL, "ws-url", "", "Push feed URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "REST API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Development mode with human-readable debug logs")

	// Set custom help function to use glamour for markdown rendering
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// loadConfig reads configuration and applies command-line overrides
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, configPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if wsURL != "" {
		cfg.WSURL = wsURL
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if devMode {
		cfg.Dev = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// renderMarkdownHelp renders command help using glamour
func renderMarkdownHelp(cmd *cobra.Command) {
	var helpContent strings.Builder

	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	helpContent.WriteString("## 📖 Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## 🔧 Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() {
		helpContent.WriteString("## ⚙️  Flags\n\n```\n")
		helpContent.WriteString(cmd.LocalFlags().FlagUsages())
		helpContent.WriteString("```\n\n")
	}

	if cmd.HasParent() && cmd.InheritedFlags().HasFlags() {
		helpContent.WriteString("## 🌐 Global Flags\n\n```\n")
		helpContent.WriteString(cmd.InheritedFlags().FlagUsages())
		helpContent.WriteString("```\n\n")
	}

	out := cmd.OutOrStdout()

	// Plain usage on failure; cmd.Help would land back here
	renderer, err := newHelpRenderer()
	if err != nil {
		fmt.Fprint(out, plainHelp(cmd))
		return
	}

	rendered, err := renderer.Render(helpContent.String())
	if err != nil {
		fmt.Fprint(out, plainHelp(cmd))
		return
	}

	fmt.Fprint(out, rendered)
}

var newHelpRenderer = func() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
}

func plainHelp(cmd *cobra.Command) string {
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	return desc + "\n\n" + cmd.UsageString()
}
