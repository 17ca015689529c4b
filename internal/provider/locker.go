// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package provider

import (
	"context"
	"time"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultLockTimeout bounds how long a caller waits to enter the
// registry's exclusive section before giving up.
const DefaultLockTimeout = 2 * time.Second

// Locker serializes read-modify-write sequences over registry state. At
// most one critical section runs at a time system-wide. Acquisition is
// bounded by a timeout and by the caller's context; on timeout the
// operation fails with CodeProviderLockTimeout, which callers treat as a
// transient failure for the current candidate.
//
// Built on a buffered channel rather than sync.Mutex because acquisition
// must be interruptible. Calls never nest; the lock is not reentrant.
type Locker struct {
	sem     chan struct{}
	timeout time.Duration
}

// NewLocker creates a Locker. Returns an error if timeout is not positive.
func NewLocker(timeout time.Duration) (*Locker, error) {
	if timeout <= 0 {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"lock timeout must be positive, got %s", timeout)
	}
	return &Locker{
		sem:     make(chan struct{}, 1),
		timeout: timeout,
	}, nil
}

// WithExclusive runs fn inside the exclusive section. It blocks until the
// lock is acquired, the timeout elapses, or ctx is cancelled. fn's error
// is returned unchanged.
func (l *Locker) WithExclusive(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
	case <-timer.C:
		return conduiterr.Errorf(conduiterr.CodeProviderLockTimeout,
			"registry lock not acquired within %s", l.timeout)
	case <-ctx.Done():
		return conduiterr.Wrap(ctx.Err(), conduiterr.CodeProviderLockTimeout,
			"registry lock acquisition cancelled")
	}
	defer func() { <-l.sem }()

	return fn()
}
