package request

import "time"

type ExternalAttendeeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

type CreateBookingRequest struct {
	BoardroomID       string                    `json:"boardroom_id" validate:"required,uuid"`
	Purpose           string                    `json:"purpose" validate:"required,min=3,max=255"`
	StartTime         time.Time                 `json:"start_time" validate:"required,future"`
	EndTime           time.Time                 `json:"end_time" validate:"required,gtfield=StartTime"`
	AttendeeIDs       []string                  `json:"attendee_ids" validate:"omitempty,dive,uuid"`
	ExternalAttendees []ExternalAttendeeRequest `json:"external_attendees" validate:"omitempty,dive"`
}

// BookingListFilter narrows the admin booking listing. Zero values match all.
type BookingListFilter struct {
	Status      string
	BoardroomID string
	From        *time.Time
	To          *time.Time
	PaginatedRequest
}
