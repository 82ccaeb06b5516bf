package response

import (
	"time"

	"boardroom-booking/internal/data/entity"
)

type AttendeeResponse struct {
	UserID   *string `json:"user_id,omitempty"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	External bool    `json:"external"`
}

type BookingResponse struct {
	ID            string               `json:"id"`
	BoardroomID   string               `json:"boardroom_id"`
	BoardroomName string               `json:"boardroom_name,omitempty"`
	Location      string               `json:"location,omitempty"`
	OrganizerID   string               `json:"organizer_id"`
	OrganizerName string               `json:"organizer_name,omitempty"`
	Purpose       string               `json:"purpose"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       time.Time            `json:"end_time"`
	Status        entity.BookingStatus `json:"status"`
	Attendees     []AttendeeResponse   `json:"attendees,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

func BookingToResponse(b *entity.BookingDetail) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID.String(),
		BoardroomID: b.BoardroomID.String(),
		OrganizerID: b.OrganizerID.String(),
		Purpose:     b.Purpose,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}

	if b.Room != nil {
		resp.BoardroomName = b.Room.Name
		resp.Location = b.Room.Location
	}
	if b.Organizer != nil {
		resp.OrganizerName = b.Organizer.Username
	}

	for _, u := range b.Attendees {
		id := u.ID.String()
		resp.Attendees = append(resp.Attendees, AttendeeResponse{UserID: &id, Email: u.Email, Name: u.Username})
	}
	for _, ea := range b.ExternalAttendees {
		resp.Attendees = append(resp.Attendees, AttendeeResponse{Email: ea.Email, Name: ea.Name, External: true})
	}

	return resp
}
