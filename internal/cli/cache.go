package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidewind/lyricwire/internal/cache"
)

// NewCacheCommand creates the cache inspection command.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cache <file>",
		Short: "Inspect a timeline cache file",
		Long: `Read a timeline cache file and print its song key, line count, and
save time. Useful for checking what a restart would restore.

Example:
  lyricwire cache ~/.cache/lyricwire/timeline.json --json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectCache(args[0], asJSON, cmd)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// cacheSummary is the inspection output shape.
type cacheSummary struct {
	SongKey   string `json:"songKey"`
	Lines     int    `json:"lines"`
	Karaoke   int    `json:"karaokeLines"`
	SavedAt   string `json:"savedAt"`
	SourceURL string `json:"sourceUrl"`
}

func inspectCache(path string, asJSON bool, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read cache file %s", path), err)
	}

	var doc cache.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return WrapExitError(ExitFailure, "cache file is not valid JSON", err)
	}
	if doc.Version != cache.Version {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("unsupported cache version %d (want %d)", doc.Version, cache.Version), nil)
	}

	karaoke := 0
	for _, line := range doc.Lines {
		if line.WordTimingUsable() {
			karaoke++
		}
	}
	summary := cacheSummary{
		SongKey:   doc.SongKey,
		Lines:     len(doc.Lines),
		Karaoke:   karaoke,
		SavedAt:   time.UnixMilli(doc.SavedAt).UTC().Format(time.RFC3339),
		SourceURL: doc.SourceURL,
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return json.NewEncoder(out).Encode(summary)
	}
	fmt.Fprintf(out, "song:    %s\n", summary.SongKey)
	fmt.Fprintf(out, "lines:   %d (%d with karaoke timing)\n", summary.Lines, summary.Karaoke)
	fmt.Fprintf(out, "saved:   %s\n", summary.SavedAt)
	if summary.SourceURL != "" {
		fmt.Fprintf(out, "source:  %s\n", summary.SourceURL)
	}
	return nil
}
