package main

import (
	"github.com/npezzotti/tvdash/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:           "tvdash",
	Short:         "Real-time dashboard for the images shown on a set of TVs",
	Long:          `HTTP + WebSocket server and clients. Commands: serve, display, watch, zoom.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe, // default: same as "tvdash serve"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(displayCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(zoomCmd)
}

// Execute runs the root command and returns the error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration for cmd: defaults, config file,
// environment, then flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// addServerFlag registers the --server flag used by the client commands.
func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:3000", "base URL of the tvdash server")
}
