package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lyricwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:1608/feed", cfg.FeedURL)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
feed_url: ws://media-host:9100/feed
offset_ms: 250
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://media-host:9100/feed", cfg.FeedURL)
	assert.Equal(t, int64(250), cfg.OffsetMs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Enabled, "unset fields keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "feed_url: ws://from-file:1/feed\n")
	t.Setenv("LYRICWIRE_FEED_URL", "ws://from-env:2/feed")
	t.Setenv("LYRICWIRE_OFFSET_MS", "-120")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://from-env:2/feed", cfg.FeedURL)
	assert.Equal(t, int64(-120), cfg.OffsetMs)
}

func TestLoad_RejectsEmptyFeedURL(t *testing.T) {
	path := writeConfig(t, `feed_url: ""`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeOffset(t *testing.T) {
	path := writeConfig(t, "offset_ms: 60000\n")
	_, err := Load(path)
	assert.Error(t, err, "a seconds-vs-milliseconds mixup must fail validation")
}

func TestLoad_RejectsUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "an explicitly named config file must exist")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "feed_url: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}
