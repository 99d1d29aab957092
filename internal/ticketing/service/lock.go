package service

import (
	"context"
	"errors"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/internal/ticketing/repository"
	"tixgate/pkg/config"
	apperrors "tixgate/pkg/errors"
)

// eventLocker serializes critical sections per event. Acquisition retries
// until LockWaitTimeout elapses, then fails with Busy rather than queueing
// callers indefinitely.
type eventLocker struct {
	repo repository.EventLockRepository
	cfg  *config.Config
}

func newEventLocker(repo repository.EventLockRepository, cfg *config.Config) *eventLocker {
	return &eventLocker{repo: repo, cfg: cfg}
}

// withLock runs fn while holding the advisory lock for eventID. The critical
// section runs on a context detached from request cancellation so a caller
// disconnect cannot abandon a half-finished admission; the lock TTL bounds
// its lifetime instead.
func (l *eventLocker) withLock(ctx context.Context, eventID string, fn func(ctx context.Context) error) error {
	if err := l.acquire(ctx, eventID); err != nil {
		return err
	}

	lockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.LockTTL)
	defer cancel()

	defer func() {
		if err := l.repo.Release(lockCtx, eventID); err != nil {
			l.cfg.Log.Warn("Failed to release event lock", "event_id", eventID, "error", err)
		}
	}()

	return fn(lockCtx)
}

func (l *eventLocker) acquire(ctx context.Context, eventID string) error {
	deadline := time.Now().Add(l.cfg.LockWaitTimeout)
	for {
		err := l.repo.Acquire(ctx, eventID, l.cfg.LockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ticketingerrors.ErrLockBusy) {
			return apperrors.Internal("Failed to acquire event lock", err)
		}
		if time.Now().After(deadline) {
			return apperrors.Busy("Event is busy, please retry")
		}
		select {
		case <-ctx.Done():
			return apperrors.Timeout("Request cancelled while waiting for event lock")
		case <-time.After(l.cfg.LockRetryInterval):
		}
	}
}
