package repository

import (
	"boardroom-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Boardroom    BoardroomRepository
	Booking      BookingRepository
	Notification NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Boardroom:    NewBoardroomRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Notification: NewNotificationRepository(db, log),
	}
}
