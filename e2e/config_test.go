//go:build e2e && unix

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigCommandReadsFileAndEnvironment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[search]\ncheckpoint_batch = 7\n"), 0644))

	cmd := exec.Command(binPath, "config", "--config", configPath)
	cmd.Env = append(os.Environ(), "SHARPPAD_LOG_LEVEL=debug")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	require.Contains(t, string(out), "checkpoint_batch = 7")
	require.Regexp(t, `level = .debug.`, string(out))
}

func TestLineNumbersFollowConfig(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.WriteConfig("[editor]\nline_numbers = false\n")
	require.NoError(t, err)
	path, err := tf.CreateTextFile("plain.txt", "first line\n")
	require.NoError(t, err)

	require.NoError(t, tf.StartApp(path))
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("first line"))
	require.NotContains(t, tf.SnapshotPlain(), "  1 first line")
}
