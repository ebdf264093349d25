package filelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "content.json.lock")
	lock := NewFileLock(lockPath)
	assert.Equal(t, lockPath, lock.Path())

	require.NoError(t, lock.Lock())
	_, err := os.Stat(lockPath)
	require.NoError(t, err)
	require.NoError(t, lock.Unlock())
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())

	other := NewFileLock(lockPath)
	acquired, err := other.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired, "lock should be held by holder")

	require.NoError(t, holder.Unlock())

	acquired, err = other.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, other.Unlock())
}

func TestLockContext_Timeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := NewFileLock(lockPath).LockContext(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWithLock_SerializesWriters(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "counter.lock")
	counterPath := filepath.Join(dir, "counter")
	require.NoError(t, os.WriteFile(counterPath, []byte{}, 0644))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), lockPath, func() error {
				data, err := os.ReadFile(counterPath)
				if err != nil {
					return err
				}
				return AtomicWrite(counterPath, append(data, 'x'))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	require.NoError(t, err)
	assert.Len(t, data, writers)
}

func TestWithLock_ReturnsFnError(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "x.lock")
	boom := errors.New("boom")

	err := WithLock(context.Background(), lockPath, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	// The lock must have been released
	acquired, err := NewFileLock(lockPath).TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "content.json")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestAtomicCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "content.json")
	dst := filepath.Join(dir, "backups", "content-1.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"entries":[]}`), 0644))

	require.NoError(t, AtomicCopy(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[]}`, string(data))

	err = AtomicCopy(filepath.Join(dir, "missing.json"), dst)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
