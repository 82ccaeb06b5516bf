package wire

import (
	"boardroom-booking/internal/adaptor"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBoardroom(
	r chi.Router,
	boardroomHandler *adaptor.BoardroomHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Route("/api/boardrooms", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Get("/", boardroomHandler.GetBoardrooms)
		r.Get("/{id}", boardroomHandler.GetBoardroomByID)

		// Requires query param: ?date=2024-01-16
		r.Get("/{id}/availability", boardroomHandler.GetAvailability)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/boardrooms", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/", boardroomHandler.CreateBoardroom)
		r.Put("/{id}", boardroomHandler.UpdateBoardroom)
		r.Delete("/{id}", boardroomHandler.DeleteBoardroom)
	})
}
