package entity

import (
	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "booking_created"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationMeetingReminder  NotificationType = "meeting_reminder"
)

type Notification struct {
	BaseSimple
	UserID    uuid.UUID        `db:"user_id"`
	BookingID *uuid.UUID       `db:"booking_id"`
	Type      NotificationType `db:"type"`
	Title     string           `db:"title"`
	Message   string           `db:"message"`
	IsRead    bool             `db:"is_read"`
}
