package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	pidFileName        = "kiwix-serve.pid"
	lockFileName       = "kiwix-serve.lock"
	lockRetryDelay     = 50 * time.Millisecond
	stateDirectoryMode = 0o755
)

// ErrCorruptHandle reports a PID file that cannot be parsed.
var ErrCorruptHandle = errors.New("corrupt pid file")

// Handle identifies a launched native server: its PID and the executable it was running at launch.
type Handle struct {
	PID        int
	Executable string
}

// HandleStore persists the native server Handle between invocations.
// Every access holds an exclusive file lock so concurrent runs never interleave.
type HandleStore struct {
	directory string
	lock      *flock.Flock
}

// NewHandleStore returns a store keeping its files under directory.
func NewHandleStore(directory string) *HandleStore {
	return &HandleStore{
		directory: directory,
		lock:      flock.New(filepath.Join(directory, lockFileName)),
	}
}

// Path returns the PID file location.
func (store *HandleStore) Path() string {
	return filepath.Join(store.directory, pidFileName)
}

// Save records handle, replacing any previous one.
func (store *HandleStore) Save(ctx context.Context, handle Handle) error {
	return store.withLock(ctx, func() error {
		content := []byte(strconv.Itoa(handle.PID) + "\n" + handle.Executable + "\n")
		if err := os.WriteFile(store.Path(), content, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", store.Path(), err)
		}
		return nil
	})
}

// Load returns the recorded handle, if any. Unparseable content yields ErrCorruptHandle.
func (store *HandleStore) Load(ctx context.Context) (Handle, bool, error) {
	var handle Handle
	var found bool
	err := store.withLock(ctx, func() error {
		content, readErr := os.ReadFile(store.Path())
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("read %s: %w", store.Path(), readErr)
		}
		parsed, parseErr := parseHandle(string(content))
		if parseErr != nil {
			return fmt.Errorf("%w %s: %v", ErrCorruptHandle, store.Path(), parseErr)
		}
		handle = parsed
		found = true
		return nil
	})
	return handle, found, err
}

// parseHandle reads the PID line and the optional executable line.
func parseHandle(content string) (Handle, error) {
	lines := strings.SplitN(strings.TrimSpace(content), "\n", 2)
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Handle{}, err
	}
	if pid <= 0 {
		return Handle{}, fmt.Errorf("invalid pid %d", pid)
	}
	handle := Handle{PID: pid}
	if len(lines) == 2 {
		handle.Executable = strings.TrimSpace(lines[1])
	}
	return handle, nil
}

// Clear forgets the recorded handle. Clearing an empty store is not an error.
func (store *HandleStore) Clear(ctx context.Context) error {
	return store.withLock(ctx, func() error {
		if err := os.Remove(store.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", store.Path(), err)
		}
		return nil
	})
}

func (store *HandleStore) withLock(ctx context.Context, action func() error) error {
	if err := os.MkdirAll(store.directory, stateDirectoryMode); err != nil {
		return fmt.Errorf("create state directory %s: %w", store.directory, err)
	}
	locked, err := store.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another kiwixctl instance holds the server handle")
	}
	defer func() {
		_ = store.lock.Unlock()
	}()
	return action()
}
