package main

import (
	"github.com/spf13/cobra"

	"codeintel/internal/version"
)

var (
	// configPathFlag is the --config flag value
	configPathFlag string
	verbosityFlag  int
	quietFlag      bool
	logFormatFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "codeintel",
	Short: "codeintel - static code intelligence",
	Long: `codeintel analyses Python, Go, JavaScript and TypeScript sources without
executing them. One run reports complexity metrics, unreachable definitions,
control-flow anti-patterns and near-duplicate code.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("codeintel version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "",
		"Path to a config file (default: .codeintel.{yaml,json,toml} in the target directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosityFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (human, json)")
}
