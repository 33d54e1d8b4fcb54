package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shimwrapper-dashboard/config"
	"shimwrapper-dashboard/logging"
)

var (
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shimwrapper-dashboard",
	Short: "Configure, order and run shimwrappercheck checks",
	Long: `shimwrapper-dashboard owns the check configuration of a project that uses
the shimwrappercheck runner. It keeps .shimwrappercheck-presets.json and the
derived .shimwrappercheckrc in step and serves the dashboard API.

Run without arguments to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Verbose: verbose,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding (console or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("root", "", "project root (default: nearest directory with project markers)")

	addServeFlags(rootCmd)
	addServeFlags(serveCmd)

	rcCmd.AddCommand(rcEncodeCmd, rcDecodeCmd)
	rootCmd.AddCommand(serveCmd, rcCmd, segmentCmd, checksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
