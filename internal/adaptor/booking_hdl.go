package adaptor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/usecase"
	"boardroom-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BookingHandler struct {
	service usecase.BookingService
	export  usecase.ExportService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, export usecase.ExportService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		export:  export,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking confirmed", booking)
}

// GetUserBookings handles GET /api/bookings (protected). Lists bookings the
// caller organizes or attends.
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := &request.PaginatedRequest{}
	req.Page, req.PerPage = parsePage(r)

	bookings, err := h.service.GetUserBookings(r.Context(), userID, req)
	if err != nil {
		handleServiceError(h.log, w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBookingByID handles GET /api/bookings/{id} (protected)
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetCurrentUser(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get booking by ID")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel and
// PUT /api/admin/bookings/{id}/cancel.
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetCurrentUser(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	if err := h.service.CancelBooking(r.Context(), actor, bookingID); err != nil {
		handleServiceError(h.log, w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", nil)
}

// ==================== ADMIN METHODS ====================

// GetAllBookings handles GET /api/admin/bookings (admin only)
func (h *BookingHandler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.BookingListFilter{
		Status:      query.Get("status"),
		BoardroomID: query.Get("boardroom_id"),
	}
	req.Page, req.PerPage = parsePage(r)

	var err error
	if req.From, err = parseTimeParam(query.Get("from"), false); err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}
	if req.To, err = parseTimeParam(query.Get("to"), true); err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	bookings, err := h.service.GetAllBookings(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "get all bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// ExportBookings handles GET /api/admin/bookings/export?from=&to= (admin only).
// Without a range the current calendar month is exported.
func (h *BookingHandler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if v, err := parseTimeParam(query.Get("from"), false); err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	} else if v != nil {
		from = *v
	}
	if v, err := parseTimeParam(query.Get("to"), true); err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	} else if v != nil {
		to = *v
	}

	data, err := h.export.ExportBookings(r.Context(), from, to)
	if err != nil {
		handleServiceError(h.log, w, err, "export bookings")
		return
	}

	filename := fmt.Sprintf("bookings_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Warn("Failed to write export", zap.Error(err))
	}
}

// parseTimeParam accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func parseTimeParam(value string, endOfRange bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, expected RFC3339 or YYYY-MM-DD", value)
	}
	if endOfRange {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
