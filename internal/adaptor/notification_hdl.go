package adaptor

import (
	"net/http"
	"strconv"

	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/usecase"
	"boardroom-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service usecase.NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service usecase.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With(zap.String("handler", "notification")),
	}
}

// GetNotifications handles GET /api/notifications?unread=true
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	req := &request.NotificationFilter{UnreadOnly: unread}
	req.Page, req.PerPage = parsePage(r)

	notifications, err := h.service.GetNotifications(r.Context(), userID, req)
	if err != nil {
		handleServiceError(h.log, w, err, "get notifications")
		return
	}

	utils.ResponseSuccess(w, "success", notifications)
}

// MarkAsRead handles PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.MarkAsRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "mark notification read")
		return
	}

	utils.ResponseSuccess(w, "Notification marked as read", nil)
}

// MarkAllAsRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	n, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		handleServiceError(h.log, w, err, "mark notifications read")
		return
	}

	utils.ResponseSuccess(w, "Notifications marked as read", map[string]int64{"updated": n})
}
