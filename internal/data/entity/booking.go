package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	BaseNoDelete
	BoardroomID uuid.UUID     `db:"boardroom_id"`
	OrganizerID uuid.UUID     `db:"organizer_id"`
	Purpose     string        `db:"purpose"`
	StartTime   time.Time     `db:"start_time"`
	EndTime     time.Time     `db:"end_time"`
	Status      BookingStatus `db:"status"`
}

// Overlaps reports whether the booking occupies any instant of [start, end).
// Touching intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// ExternalAttendee is a guest without a user account.
type ExternalAttendee struct {
	ID        uuid.UUID `db:"id"`
	BookingID uuid.UUID `db:"booking_id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
}

// BookingDetail is a booking with its room, organizer and attendees resolved.
type BookingDetail struct {
	Booking
	Room              *Boardroom
	Organizer         *User
	Attendees         []*User
	ExternalAttendees []ExternalAttendee
}

// Recipient is anyone who should hear about a booking.
type Recipient struct {
	UserID *uuid.UUID
	Email  string
	Name   string
}

// Recipients lists the organizer, internal attendees and external attendees,
// deduplicated by email address. Deactivated users are skipped.
func (d *BookingDetail) Recipients() []Recipient {
	seen := make(map[string]struct{})
	var out []Recipient

	add := func(r Recipient) {
		if r.Email == "" {
			return
		}
		if _, ok := seen[r.Email]; ok {
			return
		}
		seen[r.Email] = struct{}{}
		out = append(out, r)
	}

	if d.Organizer != nil && d.Organizer.IsActive {
		id := d.Organizer.ID
		add(Recipient{UserID: &id, Email: d.Organizer.Email, Name: d.Organizer.Username})
	}
	for _, u := range d.Attendees {
		if u == nil || !u.IsActive {
			continue
		}
		id := u.ID
		add(Recipient{UserID: &id, Email: u.Email, Name: u.Username})
	}
	for _, ea := range d.ExternalAttendees {
		add(Recipient{Email: ea.Email, Name: ea.Name})
	}

	return out
}
