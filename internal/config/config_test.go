package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"sharppad/internal/eventbus"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	svc := NewConfigServiceWithBus(nil, filepath.Join(t.TempDir(), "config.toml"))

	cfg, err := svc.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.MinInterval())
	assert.Equal(t, 50*time.Millisecond, cfg.Search.RetryBackoff())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	svc := NewConfigServiceWithBus(nil, path)

	cfg := DefaultConfig()
	cfg.Search.MatchCase = true
	cfg.Search.CheckpointBatch = 7
	cfg.Log.File = "/tmp/sharppad.log"
	require.NoError(t, svc.Save(cfg))

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nuse_regex = true\n"), 0644))

	cfg, err := NewConfigServiceWithBus(nil, path).Load()
	require.NoError(t, err)

	assert.True(t, cfg.Search.UseRegex)
	assert.Equal(t, 100, cfg.Search.CheckpointBatch)
	assert.True(t, cfg.Editor.WatchFile)
}

func TestMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search\n"), 0644))

	_, err := NewConfigServiceWithBus(nil, path).Load()
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestInvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ncheckpoint_batch = 0\n[log]\nformat = \"xml\"\n"), 0644))

	_, err := NewConfigServiceWithBus(nil, path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint_batch")
	assert.Contains(t, err.Error(), "log.format")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHARPPAD_SEARCH_MIN_INTERVAL_MS", "25")
	t.Setenv("SHARPPAD_SEARCH_WHOLE_WORD", "true")
	t.Setenv("SHARPPAD_LOG_LEVEL", "debug")

	cfg, err := NewConfigServiceWithBus(nil, filepath.Join(t.TempDir(), "config.toml")).Load()
	require.NoError(t, err)

	assert.Equal(t, 25*time.Millisecond, cfg.Search.MinInterval())
	assert.True(t, cfg.Search.WholeWord)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Search.RetryBackoffMS, "unset variables keep the file value")
}

func TestBadEnvironmentValueFails(t *testing.T) {
	t.Setenv("SHARPPAD_SEARCH_CHECKPOINT_BATCH", "lots")

	_, err := NewConfigServiceWithBus(nil, filepath.Join(t.TempDir(), "config.toml")).Load()
	assert.Error(t, err)
}

func TestDefaultQueryKeepsFlagsExclusive(t *testing.T) {
	s := SearchSettings{WholeWord: true, UseRegex: true, MatchCase: true}

	q := s.DefaultQuery()
	assert.True(t, q.UseRegex)
	assert.False(t, q.WholeWord)
	assert.True(t, q.MatchCase)
}

func TestLoadAndSavePublishEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	events := make(chan eventbus.DomainEvent, 2)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) { events <- e })
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) { events <- e })

	path := filepath.Join(t.TempDir(), "config.toml")
	svc := NewConfigServiceWithBus(bus, path)
	cfg, err := svc.Load()
	require.NoError(t, err)
	require.NoError(t, svc.Save(cfg))

	seen := map[eventbus.EventType]string{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			switch ev := e.(type) {
			case eventbus.ConfigLoadedEvent:
				seen[e.Type()] = ev.Path
			case eventbus.ConfigSavedEvent:
				seen[e.Type()] = ev.Path
			}
		case <-time.After(time.Second):
			t.Fatal("config event not published")
		}
	}
	assert.Equal(t, path, seen[eventbus.EventConfigLoaded])
	assert.Equal(t, path, seen[eventbus.EventConfigSaved])
}

func TestDefaultPathUsesXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "sharppad", "config.toml"), DefaultPath())
}

func TestLocale(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, language.Und, cfg.Search.LocaleTag())

	cfg.Search.Locale = "tr"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, language.Turkish, cfg.Search.LocaleTag())

	cfg.Search.Locale = "not a locale!"
	assert.ErrorContains(t, cfg.Validate(), "search.locale")
	assert.Equal(t, language.Und, cfg.Search.LocaleTag())
}
