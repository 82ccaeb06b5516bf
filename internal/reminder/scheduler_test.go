package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boardroom-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var referenceTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeStore filters its bookings the way the Postgres query does unless
// ignoreWindow is set.
type fakeStore struct {
	mu           sync.Mutex
	bookings     map[uuid.UUID]*entity.BookingDetail
	ignoreWindow bool
	upcomingErr  error
	detailErr    error
	queries      [][2]time.Time
}

func newFakeStore(bookings ...*entity.BookingDetail) *fakeStore {
	s := &fakeStore{bookings: make(map[uuid.UUID]*entity.BookingDetail)}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *fakeStore) FindUpcoming(ctx context.Context, from, to time.Time) ([]*entity.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, [2]time.Time{from, to})
	if s.upcomingErr != nil {
		return nil, s.upcomingErr
	}

	var out []*entity.BookingDetail
	for _, b := range s.bookings {
		if b.Status != entity.BookingStatusConfirmed {
			continue
		}
		if !s.ignoreWindow && (b.StartTime.Before(from) || b.StartTime.After(to)) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detailErr != nil {
		return nil, s.detailErr
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *fakeStore) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []uuid.UUID
	failFor map[uuid.UUID]error
	panicOn map[uuid.UUID]bool
}

func (n *fakeNotifier) SendReminder(ctx context.Context, booking *entity.BookingDetail, recipients []entity.Recipient) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, booking.ID)
	if n.panicOn[booking.ID] {
		panic("mail transport exploded")
	}
	if err := n.failFor[booking.ID]; err != nil {
		return err
	}
	return nil
}

func (n *fakeNotifier) count(id uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := 0
	for _, sent := range n.sent {
		if sent == id {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeTimers struct {
	armed []*fakeTimer
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{delay: d, fn: fn}
	f.armed = append(f.armed, t)
	return t
}

func confirmedBooking(start time.Time) *entity.BookingDetail {
	organizer := &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: "organizer",
		Email:    "organizer@example.com",
		IsActive: true,
	}
	return &entity.BookingDetail{
		Booking: entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
			Purpose:      "Quarterly review",
			StartTime:    start,
			EndTime:      start.Add(time.Hour),
			Status:       entity.BookingStatusConfirmed,
		},
		Organizer: organizer,
		Attendees: []*entity.User{organizer},
	}
}

func newTestScheduler(store BookingStore, notifier Notifier, clock *fakeClock, opts ...Option) *Scheduler {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewScheduler(store, notifier, zap.NewNop(), opts...)
}

func TestCheckUpcomingMeetings_QueriesReminderWindow(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	store := newFakeStore()
	s := newTestScheduler(store, &fakeNotifier{}, clock)

	s.CheckUpcomingMeetings(context.Background())

	if len(store.queries) != 1 {
		t.Fatalf("expected one query, got %d", len(store.queries))
	}
	from, to := store.queries[0][0], store.queries[0][1]
	if !from.Equal(referenceTime.Add(15 * time.Minute)) {
		t.Fatalf("window start = %s, want now+15m", from)
	}
	if !to.Equal(referenceTime.Add(20 * time.Minute)) {
		t.Fatalf("window end = %s, want now+20m", to)
	}
}

func TestCheckUpcomingMeetings_WindowBoundsInclusive(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	atStart := confirmedBooking(referenceTime.Add(15 * time.Minute))
	atEnd := confirmedBooking(referenceTime.Add(20 * time.Minute))
	tooLate := confirmedBooking(referenceTime.Add(20*time.Minute + time.Second))
	tooSoon := confirmedBooking(referenceTime.Add(14 * time.Minute))
	store := newFakeStore(atStart, atEnd, tooLate, tooSoon)
	notifier := &fakeNotifier{}
	s := newTestScheduler(store, notifier, clock)

	result := s.CheckUpcomingMeetings(context.Background())

	if result.Dispatched != 2 {
		t.Fatalf("expected 2 dispatches, got %+v", result)
	}
	if notifier.count(atStart.ID) != 1 || notifier.count(atEnd.ID) != 1 {
		t.Fatalf("expected both boundary bookings reminded")
	}
	if notifier.count(tooLate.ID) != 0 || notifier.count(tooSoon.ID) != 0 {
		t.Fatalf("bookings outside the window must not be reminded")
	}
}

func TestCheckUpcomingMeetings_Idempotent(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	booking := confirmedBooking(referenceTime.Add(17 * time.Minute))
	notifier := &fakeNotifier{}
	s := newTestScheduler(newFakeStore(booking), notifier, clock)

	first := s.CheckUpcomingMeetings(context.Background())
	second := s.CheckUpcomingMeetings(context.Background())

	if notifier.count(booking.ID) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", notifier.count(booking.ID))
	}
	if first.Dispatched != 1 || second.Skipped != 1 || second.Dispatched != 0 {
		t.Fatalf("unexpected tick results: first=%+v second=%+v", first, second)
	}
}

func TestCheckUpcomingMeetings_RescheduledBookingIsRemindedAgain(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	booking := confirmedBooking(referenceTime.Add(16 * time.Minute))
	store := newFakeStore(booking)
	notifier := &fakeNotifier{}
	s := newTestScheduler(store, notifier, clock)

	s.CheckUpcomingMeetings(context.Background())

	store.mu.Lock()
	booking.StartTime = referenceTime.Add(18 * time.Minute)
	store.mu.Unlock()

	s.CheckUpcomingMeetings(context.Background())

	if got := notifier.count(booking.ID); got != 2 {
		t.Fatalf("expected a second reminder for the new start time, got %d", got)
	}
}

func TestCheckUpcomingMeetings_PurgesOldEntries(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	s := newTestScheduler(newFakeStore(), &fakeNotifier{}, clock)

	old := dedupKey{bookingID: uuid.New(), startNano: 1}
	recent := dedupKey{bookingID: uuid.New(), startNano: 2}
	s.sent[old] = referenceTime.Add(-61 * time.Minute)
	s.sent[recent] = referenceTime.Add(-59 * time.Minute)

	result := s.CheckUpcomingMeetings(context.Background())

	if result.Purged != 1 {
		t.Fatalf("expected one purged entry, got %d", result.Purged)
	}
	if _, ok := s.sent[old]; ok {
		t.Fatalf("61-minute-old entry should be purged")
	}
	if _, ok := s.sent[recent]; !ok {
		t.Fatalf("59-minute-old entry should survive")
	}
}

func TestCheckUpcomingMeetings_FailureIsIsolatedPerBooking(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	a := confirmedBooking(referenceTime.Add(16 * time.Minute))
	b := confirmedBooking(referenceTime.Add(18 * time.Minute))
	notifier := &fakeNotifier{failFor: map[uuid.UUID]error{a.ID: errors.New("smtp down")}}
	s := newTestScheduler(newFakeStore(a, b), notifier, clock)

	result := s.CheckUpcomingMeetings(context.Background())

	if notifier.count(a.ID) != 1 || notifier.count(b.ID) != 1 {
		t.Fatalf("expected dispatch attempts for both bookings, got a=%d b=%d",
			notifier.count(a.ID), notifier.count(b.ID))
	}
	if result.Failed != 1 || result.Dispatched != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	// A failed dispatch still counts as sent, so there is no retry.
	s.CheckUpcomingMeetings(context.Background())
	if notifier.count(a.ID) != 1 {
		t.Fatalf("failed reminder must not be retried, got %d attempts", notifier.count(a.ID))
	}
}

func TestCheckUpcomingMeetings_RecoversNotifierPanic(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	a := confirmedBooking(referenceTime.Add(16 * time.Minute))
	b := confirmedBooking(referenceTime.Add(17 * time.Minute))
	notifier := &fakeNotifier{panicOn: map[uuid.UUID]bool{a.ID: true}}
	s := newTestScheduler(newFakeStore(a, b), notifier, clock)

	result := s.CheckUpcomingMeetings(context.Background())

	if result.Failed != 1 || result.Dispatched != 1 {
		t.Fatalf("expected one failure and one dispatch, got %+v", result)
	}
}

func TestCheckUpcomingMeetings_QueryFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	clock := &fakeClock{now: referenceTime}
	booking := confirmedBooking(referenceTime.Add(17 * time.Minute))
	store := newFakeStore(booking)
	store.upcomingErr = errors.New("connection refused")
	notifier := &fakeNotifier{}
	s := NewScheduler(store, notifier, zap.New(core), WithClock(clock.Now))

	result := s.CheckUpcomingMeetings(context.Background())

	if result.QueryErr == nil || notifier.total() != 0 {
		t.Fatalf("expected query error and no dispatch, got %+v", result)
	}
	if logs.FilterMessage("Failed to query upcoming meetings").Len() != 1 {
		t.Fatalf("expected the query failure to be logged")
	}

	store.upcomingErr = nil
	clock.Advance(time.Minute)
	s.CheckUpcomingMeetings(context.Background())
	if notifier.count(booking.ID) != 1 {
		t.Fatalf("next tick should resume normally")
	}
}

func TestCheckUpcomingMeetings_DispatchFailureLogsPurpose(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	clock := &fakeClock{now: referenceTime}
	booking := confirmedBooking(referenceTime.Add(17 * time.Minute))
	notifier := &fakeNotifier{failFor: map[uuid.UUID]error{booking.ID: errors.New("rejected")}}
	s := NewScheduler(newFakeStore(booking), notifier, zap.New(core), WithClock(clock.Now))

	s.CheckUpcomingMeetings(context.Background())

	entries := logs.FilterMessage("Failed to send meeting reminder").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["purpose"]; got != "Quarterly review" {
		t.Fatalf("expected purpose in log context, got %v", got)
	}
}

func TestCheckUpcomingMeetings_ExampleTimeline(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	b1 := confirmedBooking(referenceTime.Add(17 * time.Minute))
	store := newFakeStore(b1)
	notifier := &fakeNotifier{}
	s := newTestScheduler(store, notifier, clock)

	s.CheckUpcomingMeetings(context.Background())
	if notifier.count(b1.ID) != 1 {
		t.Fatalf("expected one reminder on first tick")
	}

	// Five minutes later the booking starts in 12 minutes, outside the window.
	clock.Advance(5 * time.Minute)
	s.CheckUpcomingMeetings(context.Background())
	if notifier.count(b1.ID) != 1 {
		t.Fatalf("expected no reminder on second tick")
	}

	// Even if the store returns it again, the dedup entry still holds it.
	store.ignoreWindow = true
	clock.Advance(5 * time.Minute)
	s.CheckUpcomingMeetings(context.Background())
	if notifier.count(b1.ID) != 1 {
		t.Fatalf("expected dedup to suppress a third reminder, got %d", notifier.count(b1.ID))
	}

	// The entry expires one hour after it was recorded.
	store.ignoreWindow = false
	clock.Advance(51 * time.Minute)
	result := s.CheckUpcomingMeetings(context.Background())
	if result.Purged != 1 || len(s.sent) != 0 {
		t.Fatalf("expected the entry to be purged, got %+v with %d entries", result, len(s.sent))
	}
}

func TestScheduleReminder_PastFireTimeIsNoop(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	s := newTestScheduler(newFakeStore(), &fakeNotifier{}, clock, WithTimerFunc(timers.AfterFunc))

	booking := &confirmedBooking(referenceTime.Add(10 * time.Minute)).Booking
	if r := s.ScheduleReminder(booking, 15); r != nil {
		t.Fatalf("expected nil handle for a past fire time")
	}
	exactlyNow := &confirmedBooking(referenceTime.Add(15 * time.Minute)).Booking
	if r := s.ScheduleReminder(exactlyNow, 15); r != nil {
		t.Fatalf("expected nil handle when the fire time is now")
	}
	if len(timers.armed) != 0 || s.Pending() != 0 {
		t.Fatalf("no timer should be registered")
	}
}

func TestScheduleReminder_FiresForConfirmedBooking(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	booking := confirmedBooking(referenceTime.Add(2 * time.Hour))
	notifier := &fakeNotifier{}
	s := newTestScheduler(newFakeStore(booking), notifier, clock, WithTimerFunc(timers.AfterFunc))

	r := s.ScheduleReminder(&booking.Booking, 0)
	if r == nil {
		t.Fatalf("expected a reminder handle")
	}
	if len(timers.armed) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(timers.armed))
	}
	if want := 105 * time.Minute; timers.armed[0].delay != want {
		t.Fatalf("delay = %s, want %s", timers.armed[0].delay, want)
	}
	if !r.FireAt.Equal(referenceTime.Add(105 * time.Minute)) {
		t.Fatalf("unexpected fire time %s", r.FireAt)
	}

	timers.armed[0].fn()

	if notifier.count(booking.ID) != 1 {
		t.Fatalf("expected one manual reminder")
	}
	if s.Pending() != 0 {
		t.Fatalf("fired reminder should no longer be pending")
	}
}

func TestScheduleReminder_SkipsStaleBookings(t *testing.T) {
	clock := &fakeClock{now: referenceTime}

	t.Run("cancelled", func(t *testing.T) {
		timers := &fakeTimers{}
		booking := confirmedBooking(referenceTime.Add(time.Hour))
		store := newFakeStore(booking)
		notifier := &fakeNotifier{}
		s := newTestScheduler(store, notifier, clock, WithTimerFunc(timers.AfterFunc))

		s.ScheduleReminder(&booking.Booking, 15)
		store.bookings[booking.ID].Status = entity.BookingStatusCancelled
		timers.armed[0].fn()

		if notifier.total() != 0 {
			t.Fatalf("cancelled booking must not be reminded")
		}
	})

	t.Run("deleted", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		timers := &fakeTimers{}
		booking := confirmedBooking(referenceTime.Add(time.Hour))
		store := newFakeStore(booking)
		notifier := &fakeNotifier{}
		s := NewScheduler(store, notifier, zap.New(core), WithClock(clock.Now), WithTimerFunc(timers.AfterFunc))

		s.ScheduleReminder(&booking.Booking, 15)
		delete(store.bookings, booking.ID)
		timers.armed[0].fn()

		if notifier.total() != 0 {
			t.Fatalf("deleted booking must not be reminded")
		}
		if logs.Len() != 0 {
			t.Fatalf("stale reminders are not errors, got %d warn+ logs", logs.Len())
		}
	})
}

func TestScheduleReminder_IndependentOfPollingDedup(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	booking := confirmedBooking(referenceTime.Add(30 * time.Minute))
	notifier := &fakeNotifier{}
	s := newTestScheduler(newFakeStore(booking), notifier, clock, WithTimerFunc(timers.AfterFunc))

	s.ScheduleReminder(&booking.Booking, 15)
	clock.Advance(12 * time.Minute)
	s.CheckUpcomingMeetings(context.Background())
	clock.Advance(3 * time.Minute)
	timers.armed[0].fn()

	if got := notifier.count(booking.ID); got != 2 {
		t.Fatalf("expected both paths to remind independently, got %d", got)
	}
	if len(s.sent) != 1 {
		t.Fatalf("manual path must not write dedup entries")
	}
}

func TestReminder_Cancel(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	booking := confirmedBooking(referenceTime.Add(time.Hour))
	s := newTestScheduler(newFakeStore(booking), &fakeNotifier{}, clock, WithTimerFunc(timers.AfterFunc))

	r := s.ScheduleReminder(&booking.Booking, 15)
	if s.Pending() != 1 {
		t.Fatalf("expected one pending reminder")
	}

	if !r.Cancel() {
		t.Fatalf("first Cancel should report the reminder was pending")
	}
	if r.Cancel() {
		t.Fatalf("second Cancel should report false")
	}
	if !timers.armed[0].stopped || s.Pending() != 0 {
		t.Fatalf("cancelled reminder should be stopped and forgotten")
	}

	var nilHandle *Reminder
	if nilHandle.Cancel() {
		t.Fatalf("nil handle Cancel should be false")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := newFakeStore()
	timers := &fakeTimers{}
	s := NewScheduler(store, &fakeNotifier{}, zap.New(core),
		WithInterval(5*time.Millisecond),
		WithTimerFunc(timers.AfterFunc),
	)

	booking := confirmedBooking(time.Now().Add(time.Hour))
	s.Start(context.Background())
	s.Start(context.Background())
	s.ScheduleReminder(&booking.Booking, 15)

	if store.queryCount() != 0 {
		t.Fatalf("no tick should run at start")
	}

	deadline := time.Now().Add(4 * time.Second)
	for store.queryCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if store.queryCount() == 0 {
		t.Fatalf("expected at least one tick")
	}

	s.Stop()

	if s.Pending() != 0 || !timers.armed[0].stopped {
		t.Fatalf("Stop should revoke pending reminders")
	}
	if logs.FilterMessage("Reminder scheduler started").Len() != 1 {
		t.Fatalf("expected a single start log")
	}

	after := store.queryCount()
	time.Sleep(20 * time.Millisecond)
	if store.queryCount() != after {
		t.Fatalf("no ticks should run after Stop")
	}
}

func TestScheduler_StartAfterStopIsNoop(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := newFakeStore()
	s := NewScheduler(store, &fakeNotifier{}, zap.New(core), WithInterval(time.Second))

	s.Start(context.Background())
	s.Stop()
	s.Stop()
	s.Start(context.Background())

	if logs.FilterMessage("Reminder scheduler already stopped, not restarting").Len() != 1 {
		t.Fatalf("expected a warning when starting a stopped scheduler")
	}

	booking := confirmedBooking(time.Now().Add(time.Hour))
	if r := s.ScheduleReminder(&booking.Booking, 15); r != nil {
		t.Fatalf("a stopped scheduler must not arm reminders")
	}

	time.Sleep(1500 * time.Millisecond)
	if store.queryCount() != 0 {
		t.Fatalf("no ticks should run after Stop, got %d", store.queryCount())
	}
}

// blockingNotifier holds SendReminder open until release is closed.
type blockingNotifier struct {
	entered  chan struct{}
	release  chan struct{}
	returned chan struct{}
}

func (n *blockingNotifier) SendReminder(ctx context.Context, booking *entity.BookingDetail, recipients []entity.Recipient) error {
	close(n.entered)
	<-n.release
	close(n.returned)
	return nil
}

func TestScheduler_StopWaitsForFiringReminder(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	booking := confirmedBooking(referenceTime.Add(time.Hour))
	notifier := &blockingNotifier{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		returned: make(chan struct{}),
	}
	s := newTestScheduler(newFakeStore(booking), notifier, clock, WithTimerFunc(timers.AfterFunc))

	s.ScheduleReminder(&booking.Booking, 15)
	go timers.armed[0].fn()
	<-notifier.entered

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned while a reminder was still sending")
	case <-time.After(50 * time.Millisecond):
	}

	close(notifier.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after the reminder finished")
	}
	select {
	case <-notifier.returned:
	default:
		t.Fatalf("Stop returned before SendReminder did")
	}
}

func TestScheduler_FiredAfterStopIsDropped(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	timers := &fakeTimers{}
	booking := confirmedBooking(referenceTime.Add(time.Hour))
	notifier := &fakeNotifier{}
	s := newTestScheduler(newFakeStore(booking), notifier, clock, WithTimerFunc(timers.AfterFunc))

	s.ScheduleReminder(&booking.Booking, 15)
	s.Stop()
	timers.armed[0].fn()

	if notifier.total() != 0 {
		t.Fatalf("a reminder firing after Stop must not send")
	}
}

func TestScheduleReminder_CronTimerFires(t *testing.T) {
	booking := confirmedBooking(time.Now().Add(15*time.Minute + 50*time.Millisecond))
	notifier := &fakeNotifier{}
	s := NewScheduler(newFakeStore(booking), notifier, zap.NewNop())
	defer s.Stop()

	r := s.ScheduleReminder(&booking.Booking, 15)
	if r == nil {
		t.Fatalf("expected a reminder handle")
	}

	deadline := time.Now().Add(2 * time.Second)
	for notifier.count(booking.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if notifier.count(booking.ID) != 1 {
		t.Fatalf("expected the cron backed reminder to fire once")
	}
	if r.Cancel() {
		t.Fatalf("Cancel after firing should report false")
	}
	if s.Pending() != 0 {
		t.Fatalf("fired reminder should no longer be pending")
	}
}

func TestScheduleReminder_CronTimerCancel(t *testing.T) {
	booking := confirmedBooking(time.Now().Add(15*time.Minute + 100*time.Millisecond))
	notifier := &fakeNotifier{}
	s := NewScheduler(newFakeStore(booking), notifier, zap.NewNop())
	defer s.Stop()

	r := s.ScheduleReminder(&booking.Booking, 15)
	if !r.Cancel() {
		t.Fatalf("first Cancel should report the reminder was pending")
	}
	if r.Cancel() {
		t.Fatalf("second Cancel should report false")
	}

	time.Sleep(300 * time.Millisecond)
	if notifier.total() != 0 {
		t.Fatalf("cancelled reminder must not send")
	}
}

func TestWithSchedule(t *testing.T) {
	s := NewScheduler(newFakeStore(), &fakeNotifier{}, nil, WithSchedule("*/10 * * * *"))
	if s.spec != "*/10 * * * *" {
		t.Fatalf("schedule = %q", s.spec)
	}

	s = NewScheduler(newFakeStore(), &fakeNotifier{}, nil, WithSchedule("every tuesday"))
	if s.spec != DefaultSchedule {
		t.Fatalf("invalid spec should keep the default, got %q", s.spec)
	}

	from := time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC)
	if next := s.schedule.Next(from); !next.Equal(time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)) {
		t.Fatalf("default schedule next = %s", next)
	}
}

type recordingMetrics struct {
	ticks  int
	sent   map[string]int
	failed map[string]int
}

func (m *recordingMetrics) ObserveTick(TickResult, time.Duration) { m.ticks++ }
func (m *recordingMetrics) ReminderSent(path string)              { m.sent[path]++ }
func (m *recordingMetrics) ReminderFailed(path string)            { m.failed[path]++ }

func TestScheduler_ReportsMetrics(t *testing.T) {
	clock := &fakeClock{now: referenceTime}
	ok := confirmedBooking(referenceTime.Add(16 * time.Minute))
	bad := confirmedBooking(referenceTime.Add(19 * time.Minute))
	notifier := &fakeNotifier{failFor: map[uuid.UUID]error{bad.ID: errors.New("bounce")}}
	m := &recordingMetrics{sent: map[string]int{}, failed: map[string]int{}}
	s := newTestScheduler(newFakeStore(ok, bad), notifier, clock, WithMetrics(m))

	s.CheckUpcomingMeetings(context.Background())

	if m.ticks != 1 || m.sent[PathPoll] != 1 || m.failed[PathPoll] != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestWithWindow_IgnoresInvalidWindow(t *testing.T) {
	s := NewScheduler(newFakeStore(), &fakeNotifier{}, nil, WithWindow(20*time.Minute, 10*time.Minute))
	if s.windowStart != DefaultWindowStart || s.windowEnd != DefaultWindowEnd {
		t.Fatalf("invalid window should keep defaults, got %s..%s", s.windowStart, s.windowEnd)
	}
}
