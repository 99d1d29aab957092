package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "tixgate/pkg/errors"
)

func TestWithLock_SerializesCriticalSections(t *testing.T) {
	cfg := newTestConfig()
	locker := newEventLocker(newFakeLockRepo(), cfg)

	inSection := 0
	maxInSection := 0
	done := make(chan error, 10)

	for i := 0; i < 10; i++ {
		go func() {
			done <- locker.withLock(context.Background(), testEventID, func(ctx context.Context) error {
				inSection++
				if inSection > maxInSection {
					maxInSection = inSection
				}
				time.Sleep(time.Millisecond)
				inSection--
				return nil
			})
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if maxInSection != 1 {
		t.Errorf("expected mutual exclusion, saw %d concurrent holders", maxInSection)
	}
}

func TestWithLock_BusyAfterWaitTimeout(t *testing.T) {
	cfg := newTestConfig()
	cfg.LockWaitTimeout = 10 * time.Millisecond
	lockRepo := newFakeLockRepo()
	locker := newEventLocker(lockRepo, cfg)

	if err := lockRepo.Acquire(context.Background(), testEventID, cfg.LockTTL); err != nil {
		t.Fatalf("setup acquire failed: %v", err)
	}

	err := locker.withLock(context.Background(), testEventID, func(ctx context.Context) error {
		t.Error("critical section must not run while the lock is held elsewhere")
		return nil
	})
	if err == nil {
		t.Fatal("expected busy error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != http.StatusServiceUnavailable && appErr.StatusCode() != http.StatusConflict {
		t.Errorf("expected busy status, got %d", appErr.StatusCode())
	}
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	cfg := newTestConfig()
	locker := newEventLocker(newFakeLockRepo(), cfg)
	sentinel := errors.New("section failed")

	err := locker.withLock(context.Background(), testEventID, func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected section error, got %v", err)
	}

	// Lock must be free again.
	reacquired := false
	err = locker.withLock(context.Background(), testEventID, func(ctx context.Context) error {
		reacquired = true
		return nil
	})
	if err != nil || !reacquired {
		t.Errorf("expected lock to be reacquirable, err=%v", err)
	}
}

func TestWithLock_DifferentEventsDoNotContend(t *testing.T) {
	cfg := newTestConfig()
	cfg.LockWaitTimeout = 10 * time.Millisecond
	lockRepo := newFakeLockRepo()
	locker := newEventLocker(lockRepo, cfg)

	if err := lockRepo.Acquire(context.Background(), "other-event", cfg.LockTTL); err != nil {
		t.Fatalf("setup acquire failed: %v", err)
	}

	ran := false
	err := locker.withLock(context.Background(), testEventID, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Errorf("expected no contention across events, err=%v", err)
	}
}
