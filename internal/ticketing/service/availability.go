package service

import (
	"context"
	"errors"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/internal/ticketing/repository"
	"tixgate/pkg/config"
	apperrors "tixgate/pkg/errors"
	"tixgate/pkg/model"
)

type AvailabilityService interface {
	Availability(ctx context.Context, eventID string) (*model.Availability, error)
}

type availabilityService struct {
	eventRepo    repository.EventRepository
	bookingRepo  repository.BookingRepository
	waitlistRepo repository.WaitlistRepository
	cfg          *config.Config
}

func NewAvailabilityService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		eventRepo:    eventRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		cfg:          cfg,
	}
}

// Availability reports the public capacity figure: capacity minus tickets
// held by non-cancelled bookings. Holds for notified waitlist entries are an
// internal admission concern and do not appear here.
func (s *availabilityService) Availability(ctx context.Context, eventID string) (*model.Availability, error) {
	event, err := findEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookingRepo.SumActiveTickets(ctx, event.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute event availability", err)
	}

	return &model.Availability{
		EventID:   event.ID,
		Capacity:  event.Capacity,
		Booked:    booked,
		Available: event.Capacity - booked,
	}, nil
}

// admissibleTickets is the figure admission decisions run against: public
// availability minus tickets reserved by notified entries whose hold is
// still live.
func admissibleTickets(
	ctx context.Context,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	event *model.Event,
	now time.Time,
	holdTTL time.Duration,
) (int, error) {
	booked, err := bookingRepo.SumActiveTickets(ctx, event.ID)
	if err != nil {
		return 0, apperrors.Internal("Failed to compute booked tickets", err)
	}
	held, err := waitlistRepo.SumActiveHolds(ctx, event.ID, now, holdTTL)
	if err != nil {
		return 0, apperrors.Internal("Failed to compute notified holds", err)
	}
	return event.Capacity - booked - held, nil
}

// findEvent resolves an event or maps the repository sentinels onto the
// API error taxonomy. Shared by every service in this package.
func findEvent(ctx context.Context, repo repository.EventRepository, eventID string) (*model.Event, error) {
	event, err := repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ticketingerrors.ErrEventNotFound) {
			return nil, apperrors.NotFoundWithID("Event", eventID)
		}
		if errors.Is(err, ticketingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve event", err)
	}
	return event, nil
}
