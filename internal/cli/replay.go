package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidewind/lyricwire/internal/config"
	"github.com/tidewind/lyricwire/internal/session"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <transcript>",
		Short: "Replay a recorded feed transcript deterministically",
		Long: `Replay a recorded feed transcript (NDJSON of {"at":wallMs,"msg":{...}}
entries) through the full normalize, clock, and index pipeline on a virtual
wall clock, writing the resulting event stream to stdout.

The same transcript always produces byte-identical output, which makes
replay useful for debugging timing issues offline and for pinning the
event stream down in tests.

Example:
  lyricwire replay captured-feed.ndjson`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, path string, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot open transcript %s", path), err)
	}
	defer f.Close()

	if err := session.Replay(f, cmd.OutOrStdout(), cfg); err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	return nil
}
