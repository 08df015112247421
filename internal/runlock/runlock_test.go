package runlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	require.NoError(t, err)
	require.NotNil(t, lock)

	require.NoError(t, lock.Release())

	// Re-acquirable after release.
	again, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestSecondAcquireFailsFast(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	_, err = Acquire(dir)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLocksAreKeyedPerRepository(t *testing.T) {
	first, err := Acquire(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = first.Release() }()

	second, err := Acquire(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
