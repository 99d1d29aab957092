package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/internal/ticketing/validator"
	"tixgate/pkg/config"
	mongodb "tixgate/pkg/db/mongo"
	"tixgate/pkg/logger"
	"tixgate/pkg/model"
)

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:                  log,
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         5 * time.Second,
		LockTTL:              2 * time.Second,
		LockWaitTimeout:      time.Second,
		LockRetryInterval:    time.Millisecond,
		NotifyHoldTTL:        15 * time.Minute,
		MaxTicketsPerBooking: 10,
	}
}

func newTestValidator(cfg *config.Config) *validator.RequestValidator {
	return validator.NewRequestValidator(cfg.MaxTicketsPerBooking, cfg.Log)
}

// Event repository fake.

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func newFakeEventRepo(events ...*model.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: make(map[string]*model.Event)}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, ticketingerrors.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

// Booking repository fake. Stateful so concurrency tests exercise real
// capacity accounting; individual methods can be overridden per test.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	seq      int

	createFunc        func(ctx context.Context, booking *model.Booking) error
	markCancelledFunc func(ctx context.Context, id string) error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (f *fakeBookingRepo) add(booking *model.Booking) *model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	booking.ID = fmt.Sprintf("booking-%d", f.seq)
	copied := *booking
	f.bookings[booking.ID] = &copied
	return booking
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, booking)
	}
	f.add(booking)
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, ticketingerrors.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) FindActiveByEventAndUser(ctx context.Context, eventID, userID string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.EventID == eventID && b.UserID == userID && b.Status != model.BookingCancelled {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ticketingerrors.ErrBookingNotFound
}

func (f *fakeBookingRepo) FindByEvent(ctx context.Context, eventID string) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.EventID == eventID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) SumActiveTickets(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.bookings {
		if b.EventID == eventID && b.Status != model.BookingCancelled {
			total += b.TicketCount
		}
	}
	return total, nil
}

func (f *fakeBookingRepo) MarkCancelled(ctx context.Context, id string) error {
	if f.markCancelledFunc != nil {
		return f.markCancelledFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return ticketingerrors.ErrBookingNotFound
	}
	if booking.Status == model.BookingCancelled {
		return ticketingerrors.ErrAlreadyCancelled
	}
	booking.Status = model.BookingCancelled
	return nil
}

func (f *fakeBookingRepo) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return ticketingerrors.ErrBookingNotFound
	}
	booking.PaymentStatus = paymentStatus
	return nil
}

func (f *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return fn(ctx)
}

// Waitlist repository fake.

type fakeWaitlistRepo struct {
	mu      sync.Mutex
	entries map[string]*model.WaitlistEntry
	seq     int

	markNotifiedFunc func(ctx context.Context, id string, at time.Time) error
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{entries: make(map[string]*model.WaitlistEntry)}
}

func (f *fakeWaitlistRepo) add(entry *model.WaitlistEntry) *model.WaitlistEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	entry.ID = fmt.Sprintf("entry-%d", f.seq)
	copied := *entry
	f.entries[entry.ID] = &copied
	return entry
}

func (f *fakeWaitlistRepo) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	f.mu.Lock()
	for _, e := range f.entries {
		if e.EventID == entry.EventID && e.UserID == entry.UserID {
			f.mu.Unlock()
			return ticketingerrors.ErrAlreadyWaitlisted
		}
	}
	f.mu.Unlock()
	f.add(entry)
	return nil
}

func (f *fakeWaitlistRepo) FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.EventID == eventID && e.UserID == userID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, ticketingerrors.ErrNotWaitlisted
}

func (f *fakeWaitlistRepo) FindByEvent(ctx context.Context, eventID, status string) ([]*model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.WaitlistEntry
	for _, e := range f.entries {
		if e.EventID != eventID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	// Arrival order, the contract promotion depends on.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].RequestDate.Before(out[i].RequestDate) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeWaitlistRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return ticketingerrors.ErrNotWaitlisted
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeWaitlistRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	if f.markNotifiedFunc != nil {
		return f.markNotifiedFunc(ctx, id, at)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return ticketingerrors.ErrNotWaitlisted
	}
	entry.Status = model.WaitlistNotified
	sent := at
	entry.NotificationSentAt = &sent
	return nil
}

func (f *fakeWaitlistRepo) MarkConverted(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return ticketingerrors.ErrNotWaitlisted
	}
	entry.Status = model.WaitlistConverted
	return nil
}

func (f *fakeWaitlistRepo) CountWaitingBefore(ctx context.Context, eventID string, requestDate time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, e := range f.entries {
		if e.EventID == eventID && e.Status == model.WaitlistWaiting && e.RequestDate.Before(requestDate) {
			count++
		}
	}
	return count, nil
}

func (f *fakeWaitlistRepo) SumActiveHolds(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, e := range f.entries {
		if e.EventID == eventID && e.HoldActive(now, ttl) {
			total += e.RequestedTickets
		}
	}
	return total, nil
}

func (f *fakeWaitlistRepo) Stats(ctx context.Context, eventID string) (*model.WaitlistStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &model.WaitlistStats{}
	for _, e := range f.entries {
		if e.EventID != eventID {
			continue
		}
		stats.TotalEntries++
		stats.TotalRequestedTickets += e.RequestedTickets
		switch e.Status {
		case model.WaitlistWaiting:
			stats.WaitingCount++
		case model.WaitlistNotified:
			stats.NotifiedCount++
		case model.WaitlistConverted:
			stats.ConvertedCount++
		}
	}
	return stats, nil
}

// Event lock fake with real contention semantics: a held lock rejects other
// acquirers until released, so the retry loop in eventLocker is exercised.

type fakeLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (f *fakeLockRepo) Acquire(ctx context.Context, eventID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[eventID] {
		return ticketingerrors.ErrLockBusy
	}
	f.held[eventID] = true
	return nil
}

func (f *fakeLockRepo) Release(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, eventID)
	return nil
}

// Notifier fake recording deliveries.

type fakeNotifier struct {
	mu       sync.Mutex
	notified []*model.WaitlistEntry
	err      error
}

func (f *fakeNotifier) NotifyPromoted(ctx context.Context, event *model.Event, entry *model.WaitlistEntry) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *entry
	f.notified = append(f.notified, &copied)
	return nil
}

func testEvent(id string, capacity int) *model.Event {
	return &model.Event{
		ID:       id,
		Name:     "Test Event",
		Capacity: capacity,
		Price:    25,
		Date:     time.Now().Add(24 * time.Hour),
	}
}

const testEventID = "65a000000000000000000001"
