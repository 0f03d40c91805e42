// SPDX-License-Identifier: MPL-2.0

//go:build unix

package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// flockRetryInterval is how often a blocked waiter rechecks the lock
// while also watching for context cancellation.
const flockRetryInterval = 50 * time.Millisecond

// fileLock holds an exclusive flock on a lock file. The zero-byte lock
// file is harmless if orphaned: the kernel releases the flock when the
// fd is closed, including on process crash.
type fileLock struct {
	file *os.File
}

// acquireLock opens (or creates) the lock file and acquires an exclusive
// flock, polling so the wait stays cancellable. Multiple OS processes
// may contend: serialization must come from the filesystem, not from
// in-process mutexes.
func acquireLock(ctx context.Context, path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err == nil {
		return &fileLock{file: f}, nil
	}

	slog.Debug("waiting for store lock", "path", path)
	ticker := time.NewTicker(flockRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
			err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
			if err == nil {
				return &fileLock{file: f}, nil
			}
			if err != unix.EWOULDBLOCK && err != unix.EAGAIN && err != unix.EINTR {
				f.Close()
				return nil, fmt.Errorf("flock %s: %w", path, err)
			}
		}
	}
}

// Release unlocks and closes the lock file. Safe to call multiple times.
func (l *fileLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		slog.Debug("flock unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		slog.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}
