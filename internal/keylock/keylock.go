// Package keylock serializes work per key.
//
// A Locker hands out one exclusive slot per key: callers holding different
// keys never wait on each other. When the Locker is given a directory it
// also takes an advisory file lock per key, so separate processes sharing a
// database serialize the same way.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockBusy is returned by the platform lock functions when another
// process holds the file lock.
var ErrLockBusy = errors.New("lock busy")

// pollInterval is how often a busy file lock is retried.
const pollInterval = 25 * time.Millisecond

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker is a set of per-key exclusive locks. The zero value is not usable;
// call New.
type Locker struct {
	dir   string
	mu    sync.Mutex
	slots map[string]*slot
}

// New creates an in-process Locker.
func New() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

// NewWithDir creates a Locker that also holds a file lock in dir for every
// key it locks. dir is created on first use.
func NewWithDir(dir string) *Locker {
	l := New()
	l.dir = dir
	return l
}

// Lock blocks until key is free or ctx is done. The returned function
// releases the lock and must be called exactly once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		l.releaseSlot(key, s)
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	var f *os.File
	if l.dir != "" {
		var err error
		if f, err = l.lockFile(ctx, key); err != nil {
			s.sem.Release(1)
			l.releaseSlot(key, s)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if f != nil {
				_ = unlockFile(f)
				_ = f.Close()
			}
			s.sem.Release(1)
			l.releaseSlot(key, s)
		})
	}, nil
}

func (l *Locker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// lockFile takes the advisory lock for key, polling while another process
// holds it.
func (l *Locker) lockFile(ctx context.Context, key string) (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(l.dir, fileName(key))
	// #nosec G304 - path is derived from the configured lock directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		err := lockFileExclusive(f)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrLockBusy) {
			_ = f.Close()
			return nil, fmt.Errorf("lock file %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// fileName maps a key onto a safe file name.
func fileName(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, key)
	return safe + ".lock"
}
