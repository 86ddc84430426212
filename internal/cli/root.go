// Package cli implements the lyricwire command tree.
//
// Commands write their NDJSON event streams to stdout and diagnostics to
// stderr, so `lyricwire run | consumer` composes cleanly. Errors carry
// distinct exit codes: see output.go.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the lyricwire CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lyricwire",
		Short: "Real-time lyric synchronization engine",
		Long: `lyricwire consumes a now-playing feed and emits a drift-corrected,
fully-resolved lyric highlight state as an NDJSON event stream.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env next to the working directory; absence is fine.
			_ = godotenv.Load()
			configureLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
