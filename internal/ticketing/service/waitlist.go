package service

import (
	"context"
	"errors"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/internal/ticketing/repository"
	"tixgate/internal/ticketing/validator"
	"tixgate/pkg/config"
	apperrors "tixgate/pkg/errors"
	"tixgate/pkg/model"
)

type WaitlistService interface {
	Join(ctx context.Context, eventID string, req *model.WaitlistRequest) (*model.WaitlistEntry, error)
	Leave(ctx context.Context, eventID, userID string) error
	List(ctx context.Context, eventID, status string) ([]*model.WaitlistEntry, error)
	PositionOf(ctx context.Context, entry *model.WaitlistEntry) (int, error)
	Stats(ctx context.Context, eventID string) (*model.WaitlistStats, error)
	StatusFor(ctx context.Context, eventID, userID string) (*model.WaitlistStatus, error)
}

type waitlistService struct {
	eventRepo    repository.EventRepository
	bookingRepo  repository.BookingRepository
	waitlistRepo repository.WaitlistRepository
	locker       *eventLocker
	validator    *validator.RequestValidator
	cfg          *config.Config
}

func NewWaitlistService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	lockRepo repository.EventLockRepository,
	v *validator.RequestValidator,
	cfg *config.Config,
) WaitlistService {
	return &waitlistService{
		eventRepo:    eventRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		locker:       newEventLocker(lockRepo, cfg),
		validator:    v,
		cfg:          cfg,
	}
}

// Join queues a user for a sold-out event. Joining is rejected while any
// admissible capacity remains, since a direct booking would succeed.
func (s *waitlistService) Join(ctx context.Context, eventID string, req *model.WaitlistRequest) (*model.WaitlistEntry, error) {
	if req.RequestedTickets == 0 {
		req.RequestedTickets = 1
	}
	if err := s.validator.ValidateWaitlistRequest(req); err != nil {
		return nil, validationError(err)
	}

	event, err := findEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if event.Expired(now) {
		return nil, apperrors.Gone("Cannot join waitlist for a past event")
	}

	var entry *model.WaitlistEntry
	err = s.locker.withLock(ctx, event.ID, func(lockCtx context.Context) error {
		admissible, lockErr := admissibleTickets(lockCtx, s.bookingRepo, s.waitlistRepo, event, now, s.cfg.NotifyHoldTTL)
		if lockErr != nil {
			return lockErr
		}
		if admissible > 0 {
			return apperrors.Conflict("Event is not sold out, direct booking is possible")
		}

		entry = &model.WaitlistEntry{
			EventID:          event.ID,
			UserID:           req.UserID,
			RequestedTickets: req.RequestedTickets,
			Status:           model.WaitlistWaiting,
			RequestDate:      now,
		}
		if lockErr := s.waitlistRepo.Create(lockCtx, entry); lockErr != nil {
			if errors.Is(lockErr, ticketingerrors.ErrAlreadyWaitlisted) {
				return apperrors.Conflict("User is already on the waitlist for this event")
			}
			return apperrors.Internal("Failed to create waitlist entry", lockErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("User joined waitlist",
		"entry_id", entry.ID,
		"event_id", event.ID,
		"user_id", req.UserID,
		"requested_tickets", entry.RequestedTickets,
	)
	return entry, nil
}

func (s *waitlistService) Leave(ctx context.Context, eventID, userID string) error {
	entry, err := s.waitlistRepo.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, ticketingerrors.ErrNotWaitlisted) {
			return apperrors.NotFound("Waitlist entry")
		}
		return apperrors.Internal("Failed to find waitlist entry", err)
	}

	if err := s.waitlistRepo.Delete(ctx, entry.ID); err != nil {
		if errors.Is(err, ticketingerrors.ErrNotWaitlisted) {
			return apperrors.NotFound("Waitlist entry")
		}
		return apperrors.Internal("Failed to remove waitlist entry", err)
	}

	s.cfg.Log.Info("User left waitlist", "event_id", eventID, "user_id", userID)
	return nil
}

func (s *waitlistService) List(ctx context.Context, eventID, status string) ([]*model.WaitlistEntry, error) {
	if _, err := findEvent(ctx, s.eventRepo, eventID); err != nil {
		return nil, err
	}
	entries, err := s.waitlistRepo.FindByEvent(ctx, eventID, status)
	if err != nil {
		return nil, apperrors.Internal("Failed to list waitlist entries", err)
	}
	return entries, nil
}

// PositionOf reports the 1-based rank of a waiting entry. Entries that are
// no longer waiting have no queue position.
func (s *waitlistService) PositionOf(ctx context.Context, entry *model.WaitlistEntry) (int, error) {
	if entry.Status != model.WaitlistWaiting {
		return 0, nil
	}
	ahead, err := s.waitlistRepo.CountWaitingBefore(ctx, entry.EventID, entry.RequestDate)
	if err != nil {
		return 0, apperrors.Internal("Failed to compute waitlist position", err)
	}
	return int(ahead) + 1, nil
}

func (s *waitlistService) Stats(ctx context.Context, eventID string) (*model.WaitlistStats, error) {
	if _, err := findEvent(ctx, s.eventRepo, eventID); err != nil {
		return nil, err
	}
	stats, err := s.waitlistRepo.Stats(ctx, eventID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute waitlist stats", err)
	}
	return stats, nil
}

func (s *waitlistService) StatusFor(ctx context.Context, eventID, userID string) (*model.WaitlistStatus, error) {
	if _, err := findEvent(ctx, s.eventRepo, eventID); err != nil {
		return nil, err
	}

	stats, err := s.waitlistRepo.Stats(ctx, eventID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute waitlist stats", err)
	}

	status := &model.WaitlistStatus{Stats: *stats}

	entry, err := s.waitlistRepo.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, ticketingerrors.ErrNotWaitlisted) {
			return status, nil
		}
		return nil, apperrors.Internal("Failed to find waitlist entry", err)
	}

	status.OnWaitlist = true
	status.Entry = entry
	status.CanBook = entry.Status == model.WaitlistNotified

	if position, err := s.PositionOf(ctx, entry); err == nil {
		status.Position = position
	} else {
		return nil, err
	}

	return status, nil
}
