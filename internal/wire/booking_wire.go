package wire

import (
	"boardroom-booking/internal/adaptor"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/", bookingHandler.GetUserBookings)
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// Organizer or admin
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// GET /api/admin/bookings?status=confirmed&from=2024-01-01&to=2024-01-31
		r.Get("/", bookingHandler.GetAllBookings)
		r.Get("/export", bookingHandler.ExportBookings)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
