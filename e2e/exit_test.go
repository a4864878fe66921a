//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitExit waits for the process started by tf to terminate
func waitExit(tf *TUITestFramework, timeout time.Duration) bool {
	done := make(chan error, 1)
	go func() { done <- tf.cmd.Wait() }()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	path, err := tf.CreateTextFile("exit.txt", "hello\n")
	require.NoError(t, err)

	require.NoError(t, tf.StartApp(path))
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("exit.txt"), "Should show the file name")

	require.NoError(t, tf.Quit())
	if !waitExit(tf, 2*time.Second) {
		tf.DumpTailOnFail(t, "exit-failure", 4096)
		t.Fatal("app did not exit after ctrl+q")
	}
}

func TestQuitWithUnsavedChangesAsksFirst(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	path, err := tf.CreateTextFile("unsaved.txt", "hello\n")
	require.NoError(t, err)

	require.NoError(t, tf.StartApp(path))
	require.True(t, tf.Ready(), "Should receive ready signal")

	require.NoError(t, tf.Type("x"))
	require.NoError(t, tf.Quit())
	require.True(t, tf.WaitForStatusMessage("unsaved changes", 2*time.Second), "Should ask for confirmation")

	require.NoError(t, tf.Quit())
	require.True(t, waitExit(tf, 2*time.Second), "second ctrl+q should quit")
}

func TestCtrlCQuitsImmediately(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err)

	require.NoError(t, tf.StartApp())
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("[untitled]"), "Should show an untitled buffer")

	require.NoError(t, tf.Type("unsaved"))
	require.NoError(t, tf.SendCtrlC())
	require.True(t, waitExit(tf, 2*time.Second), "ctrl+c should quit")
}
