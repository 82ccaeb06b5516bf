package usecase

import (
	"context"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/reminder"
	"boardroom-booking/pkg/utils"

	"go.uber.org/zap"
)

// ReminderScheduler arms one-shot reminders for new bookings.
type ReminderScheduler interface {
	ScheduleReminder(booking *entity.Booking, reminderMinutes int) *reminder.Reminder
}

// BookingNotifier tells organizer and attendees about booking changes.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, booking *entity.BookingDetail) error
	BookingCancelled(ctx context.Context, booking *entity.BookingDetail) error
}

type BookingMetrics interface {
	BookingEvent(event string)
}

// Dependencies are collaborators outside the repository layer. Nil fields
// disable the matching side effect.
type Dependencies struct {
	Reminders ReminderScheduler
	Notifier  BookingNotifier
	Metrics   BookingMetrics
}

type Service struct {
	Auth         AuthService
	User         UserService
	Boardroom    BoardroomService
	Booking      BookingService
	Notification NotificationService
	Export       ExportService
}

func NewService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) *Service {
	return &Service{
		Auth:         NewAuthService(repo, config, log),
		User:         NewUserService(repo, log),
		Boardroom:    NewBoardroomService(repo, log),
		Booking:      NewBookingService(repo, config, deps, log),
		Notification: NewNotificationService(repo.Notification, log),
		Export:       NewExportService(repo.Booking, log),
	}
}
