package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tidewind/lyricwire/internal/archive"
	"github.com/tidewind/lyricwire/internal/config"
	"github.com/tidewind/lyricwire/internal/events"
	"github.com/tidewind/lyricwire/internal/feed"
	"github.com/tidewind/lyricwire/internal/session"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the feed and stream lyric events",
		Long: `Connect to the now-playing feed, maintain the predictive clock and the
timeline index, and write the resolved event stream to stdout until
interrupted.

Example:
  lyricwire run --config ~/.config/lyricwire/config.yaml
  LYRICWIRE_FEED_URL=ws://localhost:1608/feed lyricwire run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(rootOpts, cmd)
		},
	}
	return cmd
}

func runSession(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if !cfg.Enabled {
		slog.Info("lyricwire disabled by configuration")
		return nil
	}

	// The transport is the one thing local storage cannot substitute for:
	// an unusable feed endpoint is fatal, with its own exit code.
	if err := feed.ValidateURL(cfg.FeedURL); err != nil {
		return WrapExitError(ExitEnvironment, "feed transport unavailable", err)
	}

	var arch *archive.Archive
	if cfg.ArchivePath != "" {
		arch, err = archive.Open(cfg.ArchivePath)
		if err != nil {
			// Archive trouble degrades to cache-only operation.
			slog.Warn("timeline archive unavailable", "path", cfg.ArchivePath, "error", err)
			arch = nil
		} else {
			defer arch.Close()
		}
	}

	adapter := feed.NewAdapter(cfg.FeedURL, feed.WithLogger(slog.Default()))
	s := session.New(cfg, events.NewEmitter(cmd.OutOrStdout()),
		session.WithLogger(slog.Default()),
		session.WithAdapter(adapter),
		session.WithArchive(arch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting lyric session", "feed", cfg.FeedURL)
	if err := s.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "session failed", err)
	}
	return nil
}
