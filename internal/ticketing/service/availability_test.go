package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tixgate/pkg/model"
)

func TestAvailability(t *testing.T) {
	cfg := newTestConfig()
	bookingRepo := newFakeBookingRepo()
	waitlistRepo := newFakeWaitlistRepo()
	svc := NewAvailabilityService(newFakeEventRepo(testEvent(testEventID, 100)), bookingRepo, waitlistRepo, cfg)
	ctx := context.Background()

	bookingRepo.add(&model.Booking{
		EventID: testEventID, UserID: "user-1", TicketCount: 30,
		Status: model.BookingActive, PaymentStatus: model.PaymentCompleted, CreatedAt: time.Now(),
	})
	bookingRepo.add(&model.Booking{
		EventID: testEventID, UserID: "user-2", TicketCount: 20,
		Status: model.BookingAttended, PaymentStatus: model.PaymentCompleted, CreatedAt: time.Now(),
	})
	bookingRepo.add(&model.Booking{
		EventID: testEventID, UserID: "user-3", TicketCount: 50,
		Status: model.BookingCancelled, PaymentStatus: model.PaymentPending, CreatedAt: time.Now(),
	})

	availability, err := svc.Availability(ctx, testEventID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Attended bookings keep their seats; cancelled ones release them.
	if availability.Booked != 50 {
		t.Errorf("expected 50 booked, got %d", availability.Booked)
	}
	if availability.Available != 50 {
		t.Errorf("expected 50 available, got %d", availability.Available)
	}
	if availability.Capacity != 100 {
		t.Errorf("expected capacity 100, got %d", availability.Capacity)
	}
}

// Notified holds never leak into the public availability figure.
func TestAvailability_IgnoresNotifiedHolds(t *testing.T) {
	cfg := newTestConfig()
	bookingRepo := newFakeBookingRepo()
	waitlistRepo := newFakeWaitlistRepo()
	svc := NewAvailabilityService(newFakeEventRepo(testEvent(testEventID, 10)), bookingRepo, waitlistRepo, cfg)

	sent := time.Now().Add(-time.Minute)
	waitlistRepo.add(&model.WaitlistEntry{
		EventID: testEventID, UserID: "promoted", RequestedTickets: 4,
		Status: model.WaitlistNotified, RequestDate: time.Now().Add(-time.Hour), NotificationSentAt: &sent,
	})

	availability, err := svc.Availability(context.Background(), testEventID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if availability.Available != 10 {
		t.Errorf("expected 10 available, got %d", availability.Available)
	}
}

func TestAvailability_EventNotFound(t *testing.T) {
	cfg := newTestConfig()
	svc := NewAvailabilityService(newFakeEventRepo(), newFakeBookingRepo(), newFakeWaitlistRepo(), cfg)

	_, err := svc.Availability(context.Background(), "65a000000000000000000999")
	assertAppErrorStatus(t, err, http.StatusNotFound)
}
