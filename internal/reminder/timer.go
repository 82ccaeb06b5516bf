package reminder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Timer is a pending one-shot callback that can be revoked.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// TimerFunc arms f to run once after d.
type TimerFunc func(d time.Duration, f func()) Timer

// onceSchedule yields its fire time once and then never again. A fire time
// already in the past runs on the next wake.
type onceSchedule struct {
	at    time.Time
	armed bool
}

func (o *onceSchedule) Next(t time.Time) time.Time {
	if o.armed {
		return time.Time{}
	}
	o.armed = true
	if o.at.Before(t) {
		return t
	}
	return o.at
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

// cronTimer is a one-shot cron entry. The entry is removed once it fires or
// is stopped.
type cronTimer struct {
	c     *cron.Cron
	state atomic.Int32

	mu sync.Mutex
	id cron.EntryID
}

func scheduleOnce(c *cron.Cron, d time.Duration, f func()) *cronTimer {
	t := &cronTimer{c: c}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.id = c.Schedule(&onceSchedule{at: time.Now().Add(d)}, cron.FuncJob(func() {
		if !t.state.CompareAndSwap(timerPending, timerFired) {
			return
		}
		t.mu.Lock()
		id := t.id
		t.mu.Unlock()

		c.Remove(id)
		f()
	}))
	return t
}

func (t *cronTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.mu.Lock()
	id := t.id
	t.mu.Unlock()

	t.c.Remove(id)
	return true
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Reminder is the handle returned by Scheduler.ScheduleReminder.
type Reminder struct {
	BookingID uuid.UUID
	FireAt    time.Time

	timer Timer
	owner *Scheduler
}

// Cancel revokes the reminder. It reports whether the reminder was still
// pending. Calling Cancel on a nil handle is allowed.
func (r *Reminder) Cancel() bool {
	if r == nil || r.timer == nil {
		return false
	}
	stopped := r.timer.Stop()
	if r.owner != nil {
		r.owner.forget(r)
	}
	return stopped
}
