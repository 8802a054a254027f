// Package main provides the binjs CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/astenc/binjs/pkg/config"
	"github.com/astenc/binjs/pkg/observability"
	"github.com/astenc/binjs/pkg/version"
)

var (
	cfgFile string //nolint:gochecknoglobals // CLI flag variable
	verbose bool   //nolint:gochecknoglobals // CLI flag variable
	quiet   bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "binjs",
		Short: "BinAST-style grammar-compressing encoder for JavaScript ASTs",
		Long: `binjs infers a tree-repair grammar over a JavaScript AST and emits a
compact binary encoding of it, the way a straight-line grammar compresses a
string by factoring out repeated subtrees into named rules.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.binjs.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(encodeCmd())
	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "binjs %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// loadConfig resolves the effective Config for a run, honoring --config,
// and returns a logger whose verbosity follows -v/-q.
func loadConfig(mode observability.AppMode) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo

	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}

	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(observability.NewHandler(inner, "binjs", mode))

	return cfg, logger, nil
}
