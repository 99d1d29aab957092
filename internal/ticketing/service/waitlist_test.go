package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tixgate/pkg/model"
)

func newWaitlistFixture(event *model.Event) (WaitlistService, *fakeBookingRepo, *fakeWaitlistRepo) {
	cfg := newTestConfig()
	bookingRepo := newFakeBookingRepo()
	waitlistRepo := newFakeWaitlistRepo()
	svc := NewWaitlistService(
		newFakeEventRepo(event),
		bookingRepo,
		waitlistRepo,
		newFakeLockRepo(),
		newTestValidator(cfg),
		cfg,
	)
	return svc, bookingRepo, waitlistRepo
}

func sellOut(bookingRepo *fakeBookingRepo, capacity int) {
	bookingRepo.add(&model.Booking{
		EventID: testEventID, UserID: "holder", TicketCount: capacity,
		Status: model.BookingActive, PaymentStatus: model.PaymentCompleted, CreatedAt: time.Now(),
	})
}

func TestJoin_RejectedWhileSeatsRemain(t *testing.T) {
	svc, _, _ := newWaitlistFixture(testEvent(testEventID, 5))

	_, err := svc.Join(context.Background(), testEventID, &model.WaitlistRequest{UserID: "user-1", RequestedTickets: 2})
	assertAppErrorStatus(t, err, http.StatusConflict)
}

func TestJoin_SoldOut(t *testing.T) {
	svc, bookingRepo, _ := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)

	entry, err := svc.Join(context.Background(), testEventID, &model.WaitlistRequest{UserID: "user-1", RequestedTickets: 2})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if entry.Status != model.WaitlistWaiting {
		t.Errorf("expected waiting, got %q", entry.Status)
	}
	if entry.RequestDate.IsZero() {
		t.Error("expected request date to be stamped")
	}
}

func TestJoin_DefaultsToOneTicket(t *testing.T) {
	svc, bookingRepo, _ := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)

	entry, err := svc.Join(context.Background(), testEventID, &model.WaitlistRequest{UserID: "user-1"})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if entry.RequestedTickets != 1 {
		t.Errorf("expected 1 requested ticket, got %d", entry.RequestedTickets)
	}
}

func TestJoin_AlreadyWaitlisted(t *testing.T) {
	svc, bookingRepo, _ := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)
	ctx := context.Background()

	if _, err := svc.Join(ctx, testEventID, &model.WaitlistRequest{UserID: "user-1", RequestedTickets: 1}); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	_, err := svc.Join(ctx, testEventID, &model.WaitlistRequest{UserID: "user-1", RequestedTickets: 2})
	assertAppErrorStatus(t, err, http.StatusConflict)
}

func TestJoin_PastEvent(t *testing.T) {
	event := testEvent(testEventID, 5)
	event.Date = time.Now().Add(-time.Hour)
	svc, bookingRepo, _ := newWaitlistFixture(event)
	sellOut(bookingRepo, 5)

	_, err := svc.Join(context.Background(), testEventID, &model.WaitlistRequest{UserID: "user-1"})
	assertAppErrorStatus(t, err, http.StatusGone)
}

// Live notified holds count as taken seats, so the event is still "sold out"
// for joining purposes while a promotion is pending.
func TestJoin_NotifiedHoldKeepsEventSoldOut(t *testing.T) {
	svc, bookingRepo, waitlistRepo := newWaitlistFixture(testEvent(testEventID, 5))
	bookingRepo.add(&model.Booking{
		EventID: testEventID, UserID: "holder", TicketCount: 3,
		Status: model.BookingActive, PaymentStatus: model.PaymentCompleted, CreatedAt: time.Now(),
	})
	sent := time.Now().Add(-time.Minute)
	waitlistRepo.add(&model.WaitlistEntry{
		EventID: testEventID, UserID: "promoted", RequestedTickets: 2,
		Status: model.WaitlistNotified, RequestDate: time.Now().Add(-time.Hour), NotificationSentAt: &sent,
	})

	if _, err := svc.Join(context.Background(), testEventID, &model.WaitlistRequest{UserID: "user-1"}); err != nil {
		t.Fatalf("join with all seats booked or held failed: %v", err)
	}
}

func TestLeave(t *testing.T) {
	svc, bookingRepo, _ := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)
	ctx := context.Background()

	if _, err := svc.Join(ctx, testEventID, &model.WaitlistRequest{UserID: "user-1"}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := svc.Leave(ctx, testEventID, "user-1"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	err := svc.Leave(ctx, testEventID, "user-1")
	assertAppErrorStatus(t, err, http.StatusNotFound)
}

func TestPositionOf(t *testing.T) {
	svc, bookingRepo, waitlistRepo := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	waitlistRepo.add(waitingEntry("first", 1, base))
	second := waitlistRepo.add(waitingEntry("second", 1, base.Add(time.Minute)))
	waitlistRepo.add(waitingEntry("third", 1, base.Add(2*time.Minute)))

	position, err := svc.PositionOf(ctx, second)
	if err != nil {
		t.Fatalf("position failed: %v", err)
	}
	if position != 2 {
		t.Errorf("expected position 2, got %d", position)
	}
}

func TestStatusFor(t *testing.T) {
	svc, bookingRepo, waitlistRepo := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	waitlistRepo.add(waitingEntry("first", 2, base))
	sent := time.Now().Add(-time.Minute)
	waitlistRepo.add(&model.WaitlistEntry{
		EventID: testEventID, UserID: "notified-user", RequestedTickets: 1,
		Status: model.WaitlistNotified, RequestDate: base.Add(time.Minute), NotificationSentAt: &sent,
	})

	t.Run("waiting member", func(t *testing.T) {
		status, err := svc.StatusFor(ctx, testEventID, "first")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !status.OnWaitlist {
			t.Error("expected on waitlist")
		}
		if status.CanBook {
			t.Error("waiting member cannot book yet")
		}
		if status.Position != 1 {
			t.Errorf("expected position 1, got %d", status.Position)
		}
		if status.Stats.TotalEntries != 2 {
			t.Errorf("expected 2 total entries, got %d", status.Stats.TotalEntries)
		}
	})

	t.Run("notified member", func(t *testing.T) {
		status, err := svc.StatusFor(ctx, testEventID, "notified-user")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !status.CanBook {
			t.Error("notified member should be able to book")
		}
		if status.Position != 0 {
			t.Errorf("notified member has no queue position, got %d", status.Position)
		}
	})

	t.Run("non-member", func(t *testing.T) {
		status, err := svc.StatusFor(ctx, testEventID, "stranger")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if status.OnWaitlist || status.CanBook {
			t.Error("expected stranger off the waitlist")
		}
	})
}

func TestStats(t *testing.T) {
	svc, bookingRepo, waitlistRepo := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)

	base := time.Now().Add(-time.Hour)
	waitlistRepo.add(waitingEntry("a", 2, base))
	waitlistRepo.add(waitingEntry("b", 3, base.Add(time.Minute)))
	entry := waitlistRepo.add(waitingEntry("c", 1, base.Add(2*time.Minute)))
	_ = waitlistRepo.MarkConverted(context.Background(), entry.ID)

	stats, err := svc.Stats(context.Background(), testEventID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEntries != 3 || stats.TotalRequestedTickets != 6 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.WaitingCount != 2 || stats.ConvertedCount != 1 {
		t.Errorf("unexpected status counts: %+v", stats)
	}
}

func TestList_FilterByStatus(t *testing.T) {
	svc, bookingRepo, waitlistRepo := newWaitlistFixture(testEvent(testEventID, 5))
	sellOut(bookingRepo, 5)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	waitlistRepo.add(waitingEntry("a", 1, base))
	entry := waitlistRepo.add(waitingEntry("b", 1, base.Add(time.Minute)))
	_ = waitlistRepo.MarkNotified(ctx, entry.ID, time.Now())

	all, err := svc.List(ctx, testEventID, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries, got %d", len(all))
	}

	waiting, err := svc.List(ctx, testEventID, model.WaitlistWaiting)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(waiting) != 1 || waiting[0].UserID != "a" {
		t.Errorf("expected only the waiting entry, got %v", waiting)
	}
}
