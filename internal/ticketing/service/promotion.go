package service

import (
	"context"
	"time"

	"tixgate/internal/ticketing/repository"
	"tixgate/pkg/config"
	apperrors "tixgate/pkg/errors"
	"tixgate/pkg/model"
)

// Notifier delivers promotion notifications. Delivery is fire-and-forget:
// the promotion itself never depends on the notification arriving.
type Notifier interface {
	NotifyPromoted(ctx context.Context, event *model.Event, entry *model.WaitlistEntry) error
}

type PromotionService interface {
	Promote(ctx context.Context, eventID string) ([]*model.WaitlistEntry, error)
	// PromoteLocked is the promotion step itself; the caller must already
	// hold the event lock. Cancellation uses it to promote without letting
	// go of the lock it cancelled under.
	PromoteLocked(ctx context.Context, event *model.Event) ([]*model.WaitlistEntry, error)
}

type promotionService struct {
	eventRepo    repository.EventRepository
	bookingRepo  repository.BookingRepository
	waitlistRepo repository.WaitlistRepository
	locker       *eventLocker
	notifier     Notifier
	cfg          *config.Config
}

func NewPromotionService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	lockRepo repository.EventLockRepository,
	notifier Notifier,
	cfg *config.Config,
) PromotionService {
	return &promotionService{
		eventRepo:    eventRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		locker:       newEventLocker(lockRepo, cfg),
		notifier:     notifier,
		cfg:          cfg,
	}
}

// Promote walks the waiting entries in arrival order and notifies every one
// whose request fits the capacity still admissible, skipping larger requests
// without blocking the smaller ones behind them. Safe to call when nothing
// is free; it then promotes nobody.
func (s *promotionService) Promote(ctx context.Context, eventID string) ([]*model.WaitlistEntry, error) {
	event, err := findEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}

	var promoted []*model.WaitlistEntry
	err = s.locker.withLock(ctx, event.ID, func(lockCtx context.Context) error {
		var lockErr error
		promoted, lockErr = s.PromoteLocked(lockCtx, event)
		return lockErr
	})
	if err != nil {
		return nil, err
	}

	if len(promoted) > 0 {
		s.cfg.Log.Info("Waitlist entries promoted",
			"event_id", event.ID,
			"promoted_count", len(promoted),
		)
	}
	return promoted, nil
}

func (s *promotionService) PromoteLocked(ctx context.Context, event *model.Event) ([]*model.WaitlistEntry, error) {
	now := time.Now().UTC()

	admissible, err := admissibleTickets(ctx, s.bookingRepo, s.waitlistRepo, event, now, s.cfg.NotifyHoldTTL)
	if err != nil {
		return nil, err
	}
	if admissible <= 0 {
		return nil, nil
	}

	waiting, err := s.waitlistRepo.FindByEvent(ctx, event.ID, model.WaitlistWaiting)
	if err != nil {
		return nil, apperrors.Internal("Failed to list waiting entries", err)
	}

	promoted := make([]*model.WaitlistEntry, 0)
	remaining := admissible
	for _, entry := range waiting {
		if entry.RequestedTickets > remaining {
			continue
		}
		if err := s.waitlistRepo.MarkNotified(ctx, entry.ID, now); err != nil {
			return promoted, apperrors.Internal("Failed to mark waitlist entry notified", err)
		}
		entry.Status = model.WaitlistNotified
		sent := now
		entry.NotificationSentAt = &sent

		remaining -= entry.RequestedTickets
		promoted = append(promoted, entry)

		s.notify(ctx, event, entry)

		if remaining <= 0 {
			break
		}
	}
	return promoted, nil
}

func (s *promotionService) notify(ctx context.Context, event *model.Event, entry *model.WaitlistEntry) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPromoted(ctx, event, entry); err != nil {
		s.cfg.Log.Warn("Failed to publish promotion notification",
			"event_id", event.ID,
			"entry_id", entry.ID,
			"user_id", entry.UserID,
			"error", err,
		)
	}
}
