//go:build !windows
// +build !windows

package seckey

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestWrap_MemlockLimitExceeded drops RLIMIT_MEMLOCK below a single page and
// verifies that a refused pin degrades the guard instead of failing the wrap.
func TestWrap_MemlockLimitExceeded(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("RLIMIT_MEMLOCK is not enforced for privileged processes")
	}

	origLimit := &unix.Rlimit{}
	require.NoError(t, unix.Getrlimit(unix.RLIMIT_MEMLOCK, origLimit))

	// Lowering the hard limit can't be undone without privileges, so only
	// the soft limit moves.
	limit := &unix.Rlimit{
		Cur: 16,
		Max: origLimit.Max,
	}
	require.NoError(t, unix.Setrlimit(unix.RLIMIT_MEMLOCK, limit))

	defer func() {
		assert.NoError(t, unix.Setrlimit(unix.RLIMIT_MEMLOCK, origLimit))
	}()

	LockFailures.Clear()

	key := genBytes(keySize, 0x08)
	g := Wrap(key)
	defer g.Close()

	assert.False(t, g.Locked())
	assert.Equal(t, int64(1), LockFailures.Count())

	// Everything except residency still works.
	assert.True(t, g.EqualBytes(genBytes(keySize, 0x08)))
	assert.Equal(t, 0, g.CompareBytes(key))
}
