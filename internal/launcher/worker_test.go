package launcher_test

import (
	"os/exec"
	"testing"
	"time"

	"github.com/equinor/fmu-settings-cli/internal/launcher"

	"github.com/stretchr/testify/require"
)

func shPath(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	return sh
}

func awaitResult(t *testing.T, results <-chan launcher.Result) launcher.Result {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("no worker result")
		return launcher.Result{}
	}
}

func TestWorkerExitCode(t *testing.T) {
	t.Parallel()
	sh := shPath(t)

	results := make(chan launcher.Result, 1)
	_, err := launcher.Spawn("API", launcher.Command{
		Path: sh,
		Args: []string{"-c", "exit 98"},
	}, results)
	require.NoError(t, err)

	res := awaitResult(t, results)
	require.Equal(t, "API", res.Name)
	require.Equal(t, 98, res.ExitCode)
	var exitErr *exec.ExitError
	require.ErrorAs(t, res.Err, &exitErr)
}

func TestWorkerCleanExit(t *testing.T) {
	t.Parallel()
	sh := shPath(t)

	results := make(chan launcher.Result, 1)
	_, err := launcher.Spawn("GUI", launcher.Command{
		Path: sh,
		Args: []string{"-c", "true"},
	}, results)
	require.NoError(t, err)

	res := awaitResult(t, results)
	require.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Err)
}

func TestWorkerStderrTail(t *testing.T) {
	t.Parallel()
	sh := shPath(t)

	results := make(chan launcher.Result, 1)
	_, err := launcher.Spawn("API", launcher.Command{
		Path: sh,
		Args: []string{"-c", "echo oops 1>&2; exit 1"},
	}, results)
	require.NoError(t, err)

	res := awaitResult(t, results)
	require.Equal(t, 1, res.ExitCode)
	require.Contains(t, res.Stderr, "oops")
}

func TestWorkerTerminateIdempotent(t *testing.T) {
	t.Parallel()
	sh := shPath(t)

	results := make(chan launcher.Result, 1)
	w, err := launcher.Spawn("GUI", launcher.Command{
		Path: sh,
		Args: []string{"-c", "sleep 30"},
	}, results)
	require.NoError(t, err)

	w.Terminate()
	w.Terminate() // second call must be a no-op

	res := awaitResult(t, results)
	require.Equal(t, -1, res.ExitCode)
	require.Error(t, res.Err)

	// terminating an already-exited worker is still fine
	w.Terminate()
}

func TestWorkerSpawnError(t *testing.T) {
	t.Parallel()
	results := make(chan launcher.Result, 1)
	_, err := launcher.Spawn("API", launcher.Command{
		Path: "/does/not/exist",
	}, results)
	require.Error(t, err)
	require.ErrorContains(t, err, "starting API worker")
}
