package wire

import (
	"net/http"

	"boardroom-booking/internal/adaptor"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/usecase"
	"boardroom-booking/pkg/metrics"
	"boardroom-booking/pkg/middleware"
	"boardroom-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes. m may be nil to disable
// request metrics and the metrics endpoint.
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Dependencies, m *metrics.Metrics, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, m, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(corsHandler(config.App.CORSOrigins))
	if m != nil {
		r.Use(m.Middleware)
	}

	// Apply routes
	wireAuth(r, handler.Auth, repo, logger)
	wireUser(r, handler.User, repo, logger)
	wireBoardroom(r, handler.Boardroom, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wireNotification(r, handler.Notification, repo, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if m != nil && config.Metrics.Enabled {
		r.Method(http.MethodGet, config.Metrics.Path, m.Handler())
	}

	return r
}

// corsHandler allows the configured origins. A "*" entry allows any origin.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
