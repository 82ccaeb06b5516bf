package wire

import (
	"boardroom-booking/internal/adaptor"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures profile and admin user management routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED USER ROUTES ====================
	r.With(middleware.AuthSession(repo.Session, repo.User, log)).Get("/api/user/profile", userHandler.GetProfile)

	// ==================== ADMIN ROUTES ====================
	r.With(
		middleware.AuthSession(repo.Session, repo.User, log),
		middleware.Admin(log),
	).Route("/api/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)         // GET /api/admin/users?page=1&per_page=10
		r.Put("/{id}/role", userHandler.UpdateRole) // PUT /api/admin/users/{id}/role
		r.Delete("/{id}", userHandler.DeleteUser)   // DELETE /api/admin/users/{id}
	})
}
