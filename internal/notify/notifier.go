// Package notify delivers booking notifications over email and the in-app
// notification inbox.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boardroom-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationWriter persists in-app notifications.
type NotificationWriter interface {
	CreateBatch(ctx context.Context, notifications []*entity.Notification) error
}

type Notifier struct {
	emails EmailSender
	inbox  NotificationWriter
	log    *zap.Logger
	now    func() time.Time
}

func NewNotifier(emails EmailSender, inbox NotificationWriter, log *zap.Logger) *Notifier {
	return &Notifier{
		emails: emails,
		inbox:  inbox,
		log:    log.With(zap.String("component", "notifier")),
		now:    time.Now,
	}
}

// SendReminder notifies recipients that the booking is about to start.
func (n *Notifier) SendReminder(ctx context.Context, booking *entity.BookingDetail, recipients []entity.Recipient) error {
	return n.deliver(ctx, entity.NotificationMeetingReminder, booking, recipients, reminderMessage)
}

// BookingCreated notifies organizer and attendees of a new booking.
func (n *Notifier) BookingCreated(ctx context.Context, booking *entity.BookingDetail) error {
	return n.deliver(ctx, entity.NotificationBookingCreated, booking, booking.Recipients(), createdMessage)
}

// BookingCancelled notifies organizer and attendees that a booking was cancelled.
func (n *Notifier) BookingCancelled(ctx context.Context, booking *entity.BookingDetail) error {
	return n.deliver(ctx, entity.NotificationBookingCancelled, booking, booking.Recipients(), cancelledMessage)
}

// deliver writes one in-app notification per account holder and sends one
// email per recipient. Every recipient is attempted; the returned error joins
// all failures.
func (n *Notifier) deliver(
	ctx context.Context,
	kind entity.NotificationType,
	booking *entity.BookingDetail,
	recipients []entity.Recipient,
	render func(*entity.BookingDetail, string) Message,
) error {
	if len(recipients) == 0 {
		n.log.Debug("No recipients for notification",
			zap.String("type", string(kind)),
			zap.String("booking_id", booking.ID.String()),
		)
		return nil
	}

	var errs []error

	if n.inbox != nil {
		if err := n.inbox.CreateBatch(ctx, n.inboxEntries(kind, booking, recipients, render)); err != nil {
			errs = append(errs, fmt.Errorf("write %s notifications: %w", kind, err))
		}
	}

	if n.emails != nil {
		for _, to := range recipients {
			if err := n.emails.SendEmail(ctx, to, render(booking, to.Name)); err != nil {
				n.log.Warn("Failed to email recipient",
					zap.Error(err),
					zap.String("type", string(kind)),
					zap.String("booking_id", booking.ID.String()),
					zap.String("to", to.Email),
				)
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func (n *Notifier) inboxEntries(
	kind entity.NotificationType,
	booking *entity.BookingDetail,
	recipients []entity.Recipient,
	render func(*entity.BookingDetail, string) Message,
) []*entity.Notification {
	bookingID := booking.ID
	now := n.now()

	var out []*entity.Notification
	for _, to := range recipients {
		if to.UserID == nil {
			continue
		}
		msg := render(booking, to.Name)
		out = append(out, &entity.Notification{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			UserID:     *to.UserID,
			BookingID:  &bookingID,
			Type:       kind,
			Title:      msg.Subject,
			Message:    msg.Plain,
		})
	}
	return out
}
