package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewind/lyricwire/internal/cache"
	"github.com/tidewind/lyricwire/internal/lyrics"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExitError_CodeExtraction(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitEnvironment, GetExitCode(WrapExitError(ExitEnvironment, "no transport", nil)))

	wrapped := WrapExitError(ExitCommandError, "outer", errors.New("inner"))
	assert.Contains(t, wrapped.Error(), "outer")
	assert.Contains(t, wrapped.Error(), "inner")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lyricwire")
}

func TestCacheCommand_Summary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.json")
	tl := &lyrics.Timeline{
		SongKey: "artist - title",
		Lines: []lyrics.LyricLine{
			{StartMs: 0, EndMs: 2000, Main: "a", Segments: []lyrics.WordSegment{
				{Text: "a", StartMs: 0, EndMs: 2000},
			}},
			{StartMs: 2000, EndMs: 4000, Main: "b"},
		},
	}
	require.NoError(t, cache.Save(path, tl, "ws://host/feed", 1700000000000))

	out, err := execute(t, "cache", path)
	require.NoError(t, err)
	assert.Contains(t, out, "artist - title")
	assert.Contains(t, out, "2 (1 with karaoke timing)")
}

func TestCacheCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.json")
	tl := &lyrics.Timeline{SongKey: "k", Lines: []lyrics.LyricLine{{StartMs: 0, EndMs: 1000, Main: "x"}}}
	require.NoError(t, cache.Save(path, tl, "", 0))

	out, err := execute(t, "cache", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"songKey":"k"`)
}

func TestCacheCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "cache", filepath.Join(t.TempDir(), "absent.json"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_RejectsBadScheme(t *testing.T) {
	t.Setenv("LYRICWIRE_FEED_URL", "http://not-a-feed/over-http")

	_, err := execute(t, "run")
	assert.Equal(t, ExitEnvironment, GetExitCode(err),
		"an unusable transport is the distinct environment failure")
}

func TestRunCommand_DisabledIsANoop(t *testing.T) {
	t.Setenv("LYRICWIRE_ENABLED", "false")

	_, err := execute(t, "run")
	require.NoError(t, err)
}

func TestReplayCommand_MissingTranscript(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "absent.ndjson"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayCommand_EmitsStream(t *testing.T) {
	dir := t.TempDir()
	transcript := filepath.Join(dir, "feed.ndjson")
	content := strings.Join([]string{
		`{"at":0,"msg":{"type":"song","id":"s1","title":"T","artist":"A"}}`,
		`{"at":50,"msg":{"type":"lyrics","lrcData":[{"time":0,"text":"hello"}]}}`,
		`{"at":100,"msg":{"type":"progress","currentTime":500}}`,
	}, "\n")
	require.NoError(t, os.WriteFile(transcript, []byte(content), 0o644))

	out, err := execute(t, "replay", transcript)
	require.NoError(t, err)
	assert.Contains(t, out, `"type":"timeline"`)
	assert.Contains(t, out, `"type":"progress"`)
}
