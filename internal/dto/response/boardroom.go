package response

import (
	"time"

	"boardroom-booking/internal/data/entity"
)

type BoardroomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	Amenities []string  `json:"amenities"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type TimeSlot struct {
	BookingID string    `json:"booking_id"`
	Purpose   string    `json:"purpose"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AvailabilityResponse lists the booked slots of one room on one day.
type AvailabilityResponse struct {
	Boardroom BoardroomResponse `json:"boardroom"`
	Date      string            `json:"date"`
	Booked    []TimeSlot        `json:"booked"`
}

func BoardroomToResponse(room *entity.Boardroom) BoardroomResponse {
	amenities := room.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return BoardroomResponse{
		ID:        room.ID.String(),
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		Amenities: amenities,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
	}
}
