package pidfile_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/infrastructure/pidfile"
)

func TestAcquire_WritesOwnPIDAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliefops.pid")
	pf := pidfile.New(path)

	require.NoError(t, pf.Acquire())
	pid, alive := pf.Owner()
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)

	require.NoError(t, pf.Release())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquire_ReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliefops.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))

	require.NoError(t, pidfile.New(path).Acquire())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestAcquire_RefusesLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliefops.pid")
	// the parent process (go test runner) is alive for the duration of the test
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o644))

	err := pidfile.New(path).Acquire()

	var running *pidfile.ErrAlreadyRunning
	require.ErrorAs(t, err, &running)
	assert.Equal(t, os.Getppid(), running.PID)
}
