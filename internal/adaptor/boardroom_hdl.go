package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/usecase"
	"boardroom-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BoardroomHandler struct {
	service usecase.BoardroomService
	log     *zap.Logger
}

func NewBoardroomHandler(service usecase.BoardroomService, log *zap.Logger) *BoardroomHandler {
	return &BoardroomHandler{
		service: service,
		log:     log.With(zap.String("handler", "boardroom")),
	}
}

// GetBoardrooms handles GET /api/boardrooms
func (h *BoardroomHandler) GetBoardrooms(w http.ResponseWriter, r *http.Request) {
	req := &request.BoardroomFilter{
		MinCapacity: utils.ParseInt(r.URL.Query().Get("min_capacity"), 0),
	}
	req.Page, req.PerPage = parsePage(r)

	rooms, err := h.service.GetBoardrooms(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "get boardrooms")
		return
	}

	utils.ResponseSuccess(w, "success", rooms)
}

// GetBoardroomByID handles GET /api/boardrooms/{id}
func (h *BoardroomHandler) GetBoardroomByID(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.GetBoardroomByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get boardroom")
		return
	}

	utils.ResponseSuccess(w, "success", room)
}

// GetAvailability handles GET /api/boardrooms/{id}/availability?date=YYYY-MM-DD.
// The date defaults to today.
func (h *BoardroomHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	availability, err := h.service.GetAvailability(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		handleServiceError(h.log, w, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// ==================== ADMIN METHODS ====================

// CreateBoardroom handles POST /api/admin/boardrooms (admin only)
func (h *BoardroomHandler) CreateBoardroom(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBoardroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	room, err := h.service.CreateBoardroom(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create boardroom")
		return
	}

	utils.ResponseCreated(w, "Boardroom created successfully", room)
}

// UpdateBoardroom handles PUT /api/admin/boardrooms/{id} (admin only)
func (h *BoardroomHandler) UpdateBoardroom(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateBoardroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	room, err := h.service.UpdateBoardroom(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update boardroom")
		return
	}

	utils.ResponseSuccess(w, "Boardroom updated successfully", room)
}

// DeleteBoardroom handles DELETE /api/admin/boardrooms/{id} (admin only)
func (h *BoardroomHandler) DeleteBoardroom(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBoardroom(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete boardroom")
		return
	}

	utils.ResponseSuccess(w, "Boardroom deleted successfully", nil)
}
