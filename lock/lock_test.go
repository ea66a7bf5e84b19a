package lock_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl/lock"
)

func TestTryAcquire_ExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	first, err := lock.TryAcquire(path)
	require.NoError(t, err)

	_, err = lock.TryAcquire(path)
	assert.ErrorIs(t, err, lock.ErrHeld)

	require.NoError(t, first.Release())

	second, err := lock.TryAcquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquire_RespectsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	held, err := lock.Acquire(context.Background(), path)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = lock.Acquire(ctx, path)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	held, err := lock.TryAcquire(path)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l, err := lock.Acquire(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())
	require.NoError(t, l.Release())
	assert.NoError(t, l.Release(), "release is idempotent")
}

func TestTryAcquire_RecordsPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	l, err := lock.TryAcquire(path)
	require.NoError(t, err)
	defer l.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
}
