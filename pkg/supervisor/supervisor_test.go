package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestStartAndDescribe(t *testing.T) {
	m := New()
	ctx := context.Background()

	script := writeScript(t, "sleep 5\n")
	err := m.Start(ctx, ProcessSpec{Name: "p1", Interpreter: "/bin/sh", Entrypoint: script})
	require.NoError(t, err)

	info, found, err := m.Describe(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, StatusOnline, info.Status)
	require.NotZero(t, info.PID)

	require.NoError(t, m.Delete(ctx, "p1"))
}

func TestStartDuplicateRejected(t *testing.T) {
	m := New()
	ctx := context.Background()
	script := writeScript(t, "sleep 5\n")

	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "dup", Interpreter: "/bin/sh", Entrypoint: script}))
	err := m.Start(ctx, ProcessSpec{Name: "dup", Interpreter: "/bin/sh", Entrypoint: script})
	require.Error(t, err)

	require.NoError(t, m.Delete(ctx, "dup"))
}

func TestProcessExitMarksErrored(t *testing.T) {
	m := New()
	ctx := context.Background()
	script := writeScript(t, "exit 1\n")

	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "fails", Interpreter: "/bin/sh", Entrypoint: script}))

	require.Eventually(t, func() bool {
		info, _, err := m.Describe(ctx, "fails")
		return err == nil && info.Status == StatusErrored
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStopAndDelete(t *testing.T) {
	m := New()
	ctx := context.Background()
	script := writeScript(t, "sleep 30\n")

	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "stoppable", Interpreter: "/bin/sh", Entrypoint: script}))
	require.NoError(t, m.Stop(ctx, "stoppable"))

	info, found, err := m.Describe(ctx, "stoppable")
	require.NoError(t, err)
	require.True(t, found)
	require.NotEqual(t, StatusOnline, info.Status)

	require.NoError(t, m.Delete(ctx, "stoppable"))
	_, found, err = m.Describe(ctx, "stoppable")
	require.NoError(t, err)
	require.False(t, found)
}

func TestReloadPreservesName(t *testing.T) {
	m := New()
	ctx := context.Background()
	script := writeScript(t, "sleep 5\n")

	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "reloadable", Interpreter: "/bin/sh", Entrypoint: script, Env: map[string]string{"A": "1"}}))
	firstInfo, _, err := m.Describe(ctx, "reloadable")
	require.NoError(t, err)

	require.NoError(t, m.Reload(ctx, "reloadable"))
	secondInfo, found, err := m.Describe(ctx, "reloadable")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, StatusOnline, secondInfo.Status)
	require.NotEqual(t, firstInfo.PID, secondInfo.PID)

	require.NoError(t, m.Delete(ctx, "reloadable"))
}

func TestListReturnsAllTracked(t *testing.T) {
	m := New()
	ctx := context.Background()
	script := writeScript(t, "sleep 5\n")

	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "a", Interpreter: "/bin/sh", Entrypoint: script}))
	require.NoError(t, m.Start(ctx, ProcessSpec{Name: "b", Interpreter: "/bin/sh", Entrypoint: script}))

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "b"))
}

func TestIsIPCFailure(t *testing.T) {
	require.True(t, isIPCFailure(errIPC("dial unix /tmp/x.sock: connect: connection refused")))
	require.False(t, isIPCFailure(nil))
	require.False(t, isIPCFailure(errIPC("some unrelated error")))
}

type errIPC string

func (e errIPC) Error() string { return string(e) }
