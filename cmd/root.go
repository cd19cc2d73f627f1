// Package cmd contains all Cobra commands for datachat.
//
// Design decision: the root command launches the TUI directly.
// The backend address comes from the config file, environment, or the
// --url flag; running `datachat` with no arguments starts the chat UI
// against the configured backend.
package cmd

import (
	"fmt"

	"github.com/datachat-cli/datachat/applog"
	"github.com/datachat-cli/datachat/config"
	"github.com/datachat-cli/datachat/ssh"
	"github.com/datachat-cli/datachat/tui"
	"github.com/spf13/cobra"
)

var flagURL string

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "Conversational TUI for the AI SQL Agent backend",
	Long: `datachat is a terminal client for the AI SQL Agent backend:
  • Ask questions about your data in plain English
  • Answers stream in token by token; F2 switches to chart mode
  • Generated SQL and result rows shown alongside the conversation
  • Optional SSH tunnel for backends behind a bastion host

Run 'datachat' to start the chat UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "",
		"backend base URL (overrides config file and DATACHAT_URL)")
}

func run() error {
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagURL != "" {
		appCfg.BaseURL = flagURL
	}

	cfg := appCfg.Config()
	if err := cfg.Normalize(); err != nil {
		return err
	}

	if cfg.SSH.Enabled {
		host, port, err := cfg.BackendHostPort()
		if err != nil {
			return err
		}
		tunnel, err := ssh.NewTunnel(cfg.SSH, host, port)
		if err != nil {
			return fmt.Errorf("failed to set up SSH tunnel: %w", err)
		}
		addr, err := tunnel.Start()
		if err != nil {
			return fmt.Errorf("failed to start SSH tunnel: %w", err)
		}
		defer tunnel.Stop()

		applog.Info("SSH tunnel up: %s -> %s:%d", addr.URL(), host, port)
		cfg.BaseURL = addr.URL()
	}

	defer applog.Close()
	return tui.Start(cfg)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
