package wire

import (
	"boardroom-booking/internal/adaptor"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireNotification(
	r chi.Router,
	notificationHandler *adaptor.NotificationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Get("/", notificationHandler.GetNotifications)
		r.Put("/read-all", notificationHandler.MarkAllAsRead)
		r.Put("/{id}/read", notificationHandler.MarkAsRead)
	})
}
