// Package reminder sends automatic meeting reminders for confirmed bookings.
//
// A Scheduler polls the booking store on a cron schedule and reminds every
// confirmed booking whose start time falls inside the reminder window. Each
// (booking, start time) pair is reminded at most once while its dedup entry is
// retained. ScheduleReminder offers an independent one-shot path that does not
// consult the polling dedup state.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boardroom-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// DefaultSchedule polls every five minutes on the wall clock.
	DefaultSchedule        = "*/5 * * * *"
	DefaultWindowStart     = 15 * time.Minute
	DefaultWindowEnd       = 20 * time.Minute
	DefaultRetention       = time.Hour
	DefaultReminderMinutes = 15
)

const (
	PathPoll   = "poll"
	PathManual = "manual"
)

// BookingStore is the read side of the booking repository used by the scheduler.
type BookingStore interface {
	// FindUpcoming returns confirmed bookings whose start time is in [from, to]
	// with room, organizer and attendees resolved.
	FindUpcoming(ctx context.Context, from, to time.Time) ([]*entity.BookingDetail, error)
	FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error)
}

// Notifier delivers a reminder for one booking.
type Notifier interface {
	SendReminder(ctx context.Context, booking *entity.BookingDetail, recipients []entity.Recipient) error
}

// Metrics receives scheduler events.
type Metrics interface {
	ObserveTick(result TickResult, took time.Duration)
	ReminderSent(path string)
	ReminderFailed(path string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(TickResult, time.Duration) {}
func (noopMetrics) ReminderSent(string)                   {}
func (noopMetrics) ReminderFailed(string)                 {}

// TickResult summarises one CheckUpcomingMeetings run.
type TickResult struct {
	Matched    int
	Dispatched int
	Failed     int
	Skipped    int
	Purged     int
	QueryErr   error
}

type dedupKey struct {
	bookingID uuid.UUID
	startNano int64
}

func keyFor(b *entity.BookingDetail) dedupKey {
	return dedupKey{bookingID: b.ID, startNano: b.StartTime.UnixNano()}
}

type Scheduler struct {
	store    BookingStore
	notifier Notifier
	log      *zap.Logger
	metrics  Metrics

	now         func() time.Time
	afterFunc   TimerFunc
	spec        string
	schedule    cron.Schedule
	windowStart time.Duration
	windowEnd   time.Duration
	retention   time.Duration

	cron        *cron.Cron
	cronMu      sync.Mutex
	cronRunning bool

	mu       sync.Mutex
	sent     map[dedupKey]time.Time
	pending  map[*Reminder]struct{}
	baseCtx  context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
	inflight sync.WaitGroup
}

type Option func(*Scheduler)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTimerFunc replaces the cron backed one-shot timers.
func WithTimerFunc(f TimerFunc) Option {
	return func(s *Scheduler) {
		if f != nil {
			s.afterFunc = f
		}
	}
}

// WithSchedule sets the polling schedule from a standard five field cron
// spec. Invalid specs are ignored.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if sched, err := cron.ParseStandard(spec); err == nil {
			s.spec, s.schedule = spec, sched
		}
	}
}

// WithInterval polls at a constant delay instead of a cron spec. Delays under
// a second are rounded up to one second.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.spec, s.schedule = "@every "+d.String(), cron.Every(d)
		}
	}
}

// WithWindow sets how far ahead of now the reminder window opens and closes.
// Invalid windows are ignored.
func WithWindow(start, end time.Duration) Option {
	return func(s *Scheduler) {
		if start >= 0 && end > start {
			s.windowStart = start
			s.windowEnd = end
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewScheduler(store BookingStore, notifier Notifier, log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}

	log = log.With(zap.String("component", "reminder_scheduler"))
	clog := cronLogger{log: log.Sugar()}
	defaultSchedule, _ := cron.ParseStandard(DefaultSchedule)

	s := &Scheduler{
		store:       store,
		notifier:    notifier,
		log:         log,
		metrics:     noopMetrics{},
		now:         time.Now,
		spec:        DefaultSchedule,
		schedule:    defaultSchedule,
		cron:        cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog))),
		windowStart: DefaultWindowStart,
		windowEnd:   DefaultWindowEnd,
		retention:   DefaultRetention,
		sent:        make(map[dedupKey]time.Time),
		pending:     make(map[*Reminder]struct{}),
		baseCtx:     context.Background(),
	}

	s.afterFunc = s.cronAfterFunc

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

func (s *Scheduler) cronAfterFunc(d time.Duration, f func()) Timer {
	s.startCron()
	return scheduleOnce(s.cron, d, f)
}

func (s *Scheduler) startCron() {
	s.cronMu.Lock()
	defer s.cronMu.Unlock()

	if !s.cronRunning {
		s.cron.Start()
		s.cronRunning = true
	}
}

// stopCron halts the cron runner and waits for running jobs to return.
func (s *Scheduler) stopCron() {
	s.cronMu.Lock()
	running := s.cronRunning
	s.cronRunning = false
	s.cronMu.Unlock()

	if running {
		<-s.cron.Stop().Done()
	}
}

// Start registers the polling job. The first check runs at the first
// scheduled time after Start; bookings already inside the window are not
// processed immediately. Calling Start more than once has no effect. A stopped
// Scheduler cannot be restarted.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			s.log.Warn("Reminder scheduler already stopped, not restarting")
		}
		return
	}
	s.started = true
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.baseCtx
	s.mu.Unlock()

	poll := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: s.log.Sugar()})).
		Then(cron.FuncJob(func() { s.CheckUpcomingMeetings(loopCtx) }))
	s.cron.Schedule(s.schedule, poll)
	s.startCron()

	s.log.Info("Reminder scheduler started",
		zap.String("schedule", s.spec),
		zap.Duration("window_start", s.windowStart),
		zap.Duration("window_end", s.windowEnd),
		zap.Duration("retention", s.retention),
	)
}

// Stop halts polling, revokes pending one-shot reminders and waits for an
// in-flight tick or reminder to return. Later reminders are not armed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	pending := make([]*Reminder, 0, len(s.pending))
	for r := range s.pending {
		pending = append(pending, r)
	}
	s.pending = make(map[*Reminder]struct{})
	s.mu.Unlock()

	for _, r := range pending {
		r.timer.Stop()
	}
	if cancel != nil {
		cancel()
	}

	s.stopCron()
	s.inflight.Wait()
	s.log.Info("Reminder scheduler stopped", zap.Int("revoked_reminders", len(pending)))
}

// CheckUpcomingMeetings runs one polling tick.
func (s *Scheduler) CheckUpcomingMeetings(ctx context.Context) TickResult {
	began := time.Now()
	now := s.now()
	from, to := now.Add(s.windowStart), now.Add(s.windowEnd)

	var result TickResult
	defer func() {
		s.metrics.ObserveTick(result, time.Since(began))
	}()

	bookings, err := s.store.FindUpcoming(ctx, from, to)
	if err != nil {
		result.QueryErr = err
		s.log.Error("Failed to query upcoming meetings",
			zap.Error(err),
			zap.Time("window_start", from),
			zap.Time("window_end", to),
		)
	}

	result.Matched = len(bookings)
	for _, booking := range bookings {
		if booking == nil {
			continue
		}

		if !s.claim(keyFor(booking), now) {
			result.Skipped++
			continue
		}

		if err := s.dispatch(ctx, booking, PathPoll); err != nil {
			result.Failed++
			continue
		}
		result.Dispatched++
	}

	result.Purged = s.purge(now)

	if result.Dispatched > 0 || result.Failed > 0 {
		s.log.Info("Reminder tick completed",
			zap.Int("matched", result.Matched),
			zap.Int("dispatched", result.Dispatched),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
			zap.Int("purged", result.Purged),
		)
	}

	return result
}

// claim records key as sent at now. It reports false if the key was already
// recorded. The entry stays even if the dispatch that follows fails.
func (s *Scheduler) claim(key dedupKey, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sent[key]; ok {
		return false
	}
	s.sent[key] = now
	return true
}

// purge drops dedup entries recorded before now minus the retention window.
func (s *Scheduler) purge(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for key, at := range s.sent {
		if at.Before(cutoff) {
			delete(s.sent, key)
			purged++
		}
	}
	return purged
}

// ScheduleReminder arms a one-shot reminder reminderMinutes before the
// booking starts (DefaultReminderMinutes when reminderMinutes <= 0). It returns
// nil without arming anything when that moment has already passed. At fire time
// the booking is re-read and reminded only if it still exists and is confirmed.
func (s *Scheduler) ScheduleReminder(booking *entity.Booking, reminderMinutes int) *Reminder {
	if booking == nil {
		return nil
	}
	if reminderMinutes <= 0 {
		reminderMinutes = DefaultReminderMinutes
	}

	fireAt := booking.StartTime.Add(-time.Duration(reminderMinutes) * time.Minute)
	delay := fireAt.Sub(s.now())
	if delay <= 0 {
		return nil
	}

	r := &Reminder{BookingID: booking.ID, FireAt: fireAt, owner: s}

	// Hold the lock while arming so a fast callback cannot run forget before
	// the reminder is registered.
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	r.timer = s.afterFunc(delay, func() { s.fire(r) })
	s.pending[r] = struct{}{}
	s.mu.Unlock()

	s.log.Debug("Reminder scheduled",
		zap.String("booking_id", booking.ID.String()),
		zap.Time("fire_at", fireAt),
	)

	return r
}

func (s *Scheduler) forget(r *Reminder) {
	s.mu.Lock()
	delete(s.pending, r)
	s.mu.Unlock()
}

// Pending reports the number of armed one-shot reminders.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) fire(r *Reminder) {
	s.mu.Lock()
	delete(s.pending, r)
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	ctx := s.baseCtx
	s.mu.Unlock()
	defer s.inflight.Done()

	if ctx.Err() != nil {
		return
	}

	booking, err := s.store.FindDetailByID(ctx, r.BookingID)
	if err != nil {
		s.log.Error("Failed to load booking for scheduled reminder",
			zap.Error(err),
			zap.String("booking_id", r.BookingID.String()),
		)
		return
	}

	if booking == nil || booking.Status != entity.BookingStatusConfirmed {
		s.log.Debug("Scheduled reminder skipped, booking no longer confirmed",
			zap.String("booking_id", r.BookingID.String()),
		)
		return
	}

	_ = s.dispatch(ctx, booking, PathManual)
}

// dispatch sends one reminder. Errors and panics are logged and returned,
// never propagated further.
func (s *Scheduler) dispatch(ctx context.Context, booking *entity.BookingDetail, path string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reminder dispatch panic: %v", rec)
		}
		if err != nil {
			s.metrics.ReminderFailed(path)
			s.log.Error("Failed to send meeting reminder",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.String("purpose", booking.Purpose),
				zap.String("path", path),
			)
			return
		}
		s.metrics.ReminderSent(path)
	}()

	recipients := booking.Recipients()
	if err := s.notifier.SendReminder(ctx, booking, recipients); err != nil {
		return err
	}

	s.log.Info("Meeting reminder sent",
		zap.String("booking_id", booking.ID.String()),
		zap.String("purpose", booking.Purpose),
		zap.Time("start_time", booking.StartTime),
		zap.Int("recipients", len(recipients)),
		zap.String("path", path),
	)
	return nil
}
