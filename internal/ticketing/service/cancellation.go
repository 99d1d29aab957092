package service

import (
	"context"
	"errors"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/internal/ticketing/repository"
	"tixgate/pkg/config"
	apperrors "tixgate/pkg/errors"
	"tixgate/pkg/model"
)

type BookingService interface {
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)
	CompletePayment(ctx context.Context, bookingID string) (*model.Booking, error)
	GetByID(ctx context.Context, bookingID string) (*model.Booking, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
}

type bookingService struct {
	eventRepo   repository.EventRepository
	bookingRepo repository.BookingRepository
	locker      *eventLocker
	promotion   PromotionService
	cfg         *config.Config
}

func NewBookingService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	lockRepo repository.EventLockRepository,
	promotion PromotionService,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		locker:      newEventLocker(lockRepo, cfg),
		promotion:   promotion,
		cfg:         cfg,
	}
}

// Cancel releases a booking's tickets and immediately promotes eligible
// waitlist entries under the same event lock. The two steps form a saga:
// the cancellation commits first and stays durable even if the promotion
// errors, in which case the error is surfaced so promotion can be retried.
func (s *bookingService) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCancelled {
		return nil, apperrors.Conflict("Booking is already cancelled")
	}

	event, err := findEvent(ctx, s.eventRepo, booking.EventID)
	if err != nil {
		return nil, err
	}

	err = s.locker.withLock(ctx, event.ID, func(lockCtx context.Context) error {
		lockErr := s.bookingRepo.ExecuteTransaction(lockCtx, func(txCtx context.Context) error {
			return s.bookingRepo.MarkCancelled(txCtx, booking.ID)
		})
		if lockErr != nil {
			// A concurrent cancel can win between the pre-check and the
			// update; the compare-and-set is the authoritative check.
			if errors.Is(lockErr, ticketingerrors.ErrAlreadyCancelled) {
				return apperrors.Conflict("Booking is already cancelled")
			}
			if errors.Is(lockErr, ticketingerrors.ErrBookingNotFound) {
				return apperrors.NotFoundWithID("Booking", booking.ID)
			}
			return apperrors.Internal("Failed to cancel booking", lockErr)
		}
		booking.Status = model.BookingCancelled

		s.cfg.Log.Info("Booking cancelled",
			"booking_id", booking.ID,
			"event_id", event.ID,
			"ticket_count", booking.TicketCount,
		)

		if _, lockErr = s.promotion.PromoteLocked(lockCtx, event); lockErr != nil {
			s.cfg.Log.Error("Promotion after cancellation failed",
				"event_id", event.ID,
				"booking_id", booking.ID,
				"error", lockErr,
			)
			return lockErr
		}
		return nil
	})
	if err != nil {
		// The cancellation may already be durable; the caller learns the
		// promotion needs a retry.
		if booking.Status == model.BookingCancelled {
			return booking, err
		}
		return nil, err
	}

	return booking, nil
}

func (s *bookingService) CompletePayment(ctx context.Context, bookingID string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCancelled {
		return nil, apperrors.Conflict("Cannot complete payment for a cancelled booking")
	}
	if booking.PaymentStatus == model.PaymentCompleted {
		return booking, nil
	}

	if err := s.bookingRepo.UpdatePaymentStatus(ctx, booking.ID, model.PaymentCompleted); err != nil {
		if errors.Is(err, ticketingerrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Internal("Failed to complete payment", err)
	}
	booking.PaymentStatus = model.PaymentCompleted

	s.cfg.Log.Info("Booking payment completed", "booking_id", booking.ID)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ticketingerrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, ticketingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) ListByEvent(ctx context.Context, eventID string) ([]*model.Booking, error) {
	if _, err := findEvent(ctx, s.eventRepo, eventID); err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	bookings, err := s.bookingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}
