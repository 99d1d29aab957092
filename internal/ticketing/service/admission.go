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

type AdmissionService interface {
	Admit(ctx context.Context, eventID string, req *model.BookingRequest) (*model.Booking, error)
}

type admissionService struct {
	eventRepo    repository.EventRepository
	bookingRepo  repository.BookingRepository
	waitlistRepo repository.WaitlistRepository
	locker       *eventLocker
	validator    *validator.RequestValidator
	cfg          *config.Config
}

func NewAdmissionService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	lockRepo repository.EventLockRepository,
	v *validator.RequestValidator,
	cfg *config.Config,
) AdmissionService {
	return &admissionService{
		eventRepo:    eventRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		locker:       newEventLocker(lockRepo, cfg),
		validator:    v,
		cfg:          cfg,
	}
}

// Admit books tickets against the event's remaining capacity. Preconditions
// are checked in a fixed order (event exists, event not expired, no active
// booking for the user, capacity suffices) with the capacity check and the
// insert running under the per-event lock in one transaction. A caller
// holding a notified waitlist entry books against their own hold and the
// entry converts in the same transaction.
func (s *admissionService) Admit(ctx context.Context, eventID string, req *model.BookingRequest) (*model.Booking, error) {
	if req.TicketCount == 0 {
		req.TicketCount = 1
	}
	if err := s.validator.ValidateBookingRequest(req); err != nil {
		return nil, validationError(err)
	}

	event, err := findEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if event.Expired(now) {
		return nil, apperrors.Gone("Event date has passed")
	}

	var booking *model.Booking
	err = s.locker.withLock(ctx, event.ID, func(lockCtx context.Context) error {
		return s.bookingRepo.ExecuteTransaction(lockCtx, func(txCtx context.Context) error {
			var txErr error
			booking, txErr = s.admitLocked(txCtx, event, req, now)
			return txErr
		})
	})
	if err != nil {
		s.cfg.Log.Error("Admission failed",
			"event_id", event.ID,
			"user_id", req.UserID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking admitted",
		"booking_id", booking.ID,
		"event_id", event.ID,
		"user_id", req.UserID,
		"ticket_count", booking.TicketCount,
	)
	return booking, nil
}

func (s *admissionService) admitLocked(ctx context.Context, event *model.Event, req *model.BookingRequest, now time.Time) (*model.Booking, error) {
	_, err := s.bookingRepo.FindActiveByEventAndUser(ctx, event.ID, req.UserID)
	if err == nil {
		return nil, apperrors.Conflict("User already has an active booking for this event")
	}
	if !errors.Is(err, ticketingerrors.ErrBookingNotFound) {
		return nil, apperrors.Internal("Failed to check for existing booking", err)
	}

	entry, err := s.waitlistRepo.FindByEventAndUser(ctx, event.ID, req.UserID)
	if err != nil && !errors.Is(err, ticketingerrors.ErrNotWaitlisted) {
		return nil, apperrors.Internal("Failed to check waitlist membership", err)
	}

	admissible, err := admissibleTickets(ctx, s.bookingRepo, s.waitlistRepo, event, now, s.cfg.NotifyHoldTTL)
	if err != nil {
		return nil, err
	}
	// The caller's own live hold is theirs to spend.
	if entry != nil && entry.HoldActive(now, s.cfg.NotifyHoldTTL) {
		admissible += entry.RequestedTickets
	}

	if req.TicketCount > admissible {
		if admissible < 0 {
			admissible = 0
		}
		return nil, apperrors.Conflict("Not enough tickets available").WithDetails(map[string]any{
			"requested": req.TicketCount,
			"available": admissible,
		})
	}

	booking := &model.Booking{
		EventID:       event.ID,
		UserID:        req.UserID,
		TicketCount:   req.TicketCount,
		Status:        model.BookingActive,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, ticketingerrors.ErrDuplicateBooking) {
			return nil, apperrors.Conflict("User already has an active booking for this event")
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	if entry != nil && entry.Status == model.WaitlistNotified {
		if err := s.waitlistRepo.MarkConverted(ctx, entry.ID); err != nil {
			return nil, apperrors.Internal("Failed to convert waitlist entry", err)
		}
	}

	return booking, nil
}

// validationError wraps validator output into the API error taxonomy.
func validationError(err error) error {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		details := make(map[string]any, len(vErrs))
		for _, ve := range vErrs {
			details[ve.Field] = ve.Message
		}
		return apperrors.Validation("Request validation failed", details)
	}
	return apperrors.InvalidInput(err.Error())
}
