package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/dto/response"
	"boardroom-booking/internal/reminder"
	"boardroom-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

type BookingService interface {
	CreateBooking(ctx context.Context, organizerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, actor *entity.User, bookingID string) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, actor *entity.User, bookingID string) error

	// Admin
	GetAllBookings(ctx context.Context, req *request.BookingListFilter) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo        *repository.Repository
	reminders   ReminderScheduler
	notifier    BookingNotifier
	metrics     BookingMetrics
	leadMinutes int
	log         *zap.Logger
	now         func() time.Time
	async       func(func())

	mu      sync.Mutex
	pending map[uuid.UUID]*reminder.Reminder
}

func NewBookingService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) BookingService {
	return newBookingService(repo, config, deps, log)
}

func newBookingService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) *bookingService {
	lead := reminder.DefaultReminderMinutes
	if config != nil && config.Reminder.LeadMinutes > 0 {
		lead = config.Reminder.LeadMinutes
	}

	return &bookingService{
		repo:        repo,
		reminders:   deps.Reminders,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		leadMinutes: lead,
		log:         log.With(zap.String("service", "booking")),
		now:         time.Now,
		async:       func(f func()) { go f() },
		pending:     make(map[uuid.UUID]*reminder.Reminder),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, organizerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	// 1. Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	roomID, err := uuid.Parse(req.BoardroomID)
	if err != nil {
		return nil, fmt.Errorf("invalid boardroom ID format %s: %w", req.BoardroomID, err)
	}

	// 2. Room must exist and be bookable
	room, err := s.repo.Boardroom.FindByID(ctx, roomID)
	if err != nil {
		s.log.Error("Failed to find boardroom", zap.Error(err), zap.String("boardroom_id", req.BoardroomID))
		return nil, fmt.Errorf("failed to create booking")
	}
	if room == nil {
		return nil, fmt.Errorf("boardroom %s %w", req.BoardroomID, ErrNotFound)
	}
	if !room.IsActive {
		return nil, fmt.Errorf("cannot book inactive boardroom %s", room.Name)
	}

	// 3. Resolve attendees
	attendeeIDs, err := s.resolveAttendees(ctx, organizerID, req.AttendeeIDs)
	if err != nil {
		return nil, err
	}
	external := externalAttendees(req.ExternalAttendees)

	// Organizer occupies a seat too
	if headcount := 1 + len(attendeeIDs) + len(external); headcount > room.Capacity {
		return nil, fmt.Errorf("validation failed: %d attendees exceed capacity %d of %s",
			headcount, room.Capacity, room.Name)
	}

	// 4. Overlap check
	start, end := req.StartTime, req.EndTime
	conflict, err := s.repo.Booking.HasConflict(ctx, roomID, start, end, uuid.Nil)
	if err != nil {
		s.log.Error("Failed to check booking conflict", zap.Error(err), zap.String("boardroom_id", req.BoardroomID))
		return nil, fmt.Errorf("failed to create booking")
	}
	if conflict {
		s.event("conflict")
		return nil, fmt.Errorf("booking %w: %s is already booked for that time", ErrConflict, room.Name)
	}

	// 5. Persist
	now := s.now()
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BoardroomID: roomID,
		OrganizerID: organizerID,
		Purpose:     strings.TrimSpace(req.Purpose),
		StartTime:   start,
		EndTime:     end,
		Status:      entity.BookingStatusConfirmed,
	}
	for i := range external {
		external[i].BookingID = booking.ID
	}

	if err := s.repo.Booking.Create(ctx, booking, attendeeIDs, external); err != nil {
		if errors.Is(err, repository.ErrBookingConflict) {
			s.event("conflict")
			return nil, fmt.Errorf("booking %w: %s is already booked for that time", ErrConflict, room.Name)
		}
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("boardroom_id", req.BoardroomID))
		return nil, fmt.Errorf("failed to create booking")
	}

	s.event("created")
	s.armReminder(booking)

	detail, err := s.repo.Booking.FindDetailByID(ctx, booking.ID)
	if err != nil || detail == nil {
		s.log.Warn("Failed to reload created booking", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		detail = &entity.BookingDetail{Booking: *booking, Room: room}
	}

	s.notify(detail, "created")

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("boardroom_id", roomID.String()),
		zap.String("organizer_id", organizerID.String()),
		zap.Time("start_time", start),
		zap.Time("end_time", end))

	resp := response.BookingToResponse(detail)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	normalizePage(req)

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get bookings")
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to count bookings")
	}

	return response.NewPaginatedResponse(toBookingResponses(bookings), req.Page, req.PerPage, total), nil
}

// GetBookingByID is visible to the organizer, attendees and admins.
func (s *bookingService) GetBookingByID(ctx context.Context, actor *entity.User, bookingID string) (*response.BookingResponse, error) {
	detail, err := s.findDetail(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !isParticipant(detail, actor.ID) {
		return nil, fmt.Errorf("%w: not a participant of this booking", ErrForbidden)
	}

	resp := response.BookingToResponse(detail)
	return &resp, nil
}

// CancelBooking is allowed for the organizer and admins.
func (s *bookingService) CancelBooking(ctx context.Context, actor *entity.User, bookingID string) error {
	detail, err := s.findDetail(ctx, bookingID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && detail.OrganizerID != actor.ID {
		return fmt.Errorf("%w: only the organizer or an admin can cancel", ErrForbidden)
	}
	if detail.Status == entity.BookingStatusCancelled {
		return fmt.Errorf("cannot cancel booking: already cancelled")
	}
	if !detail.EndTime.After(s.now()) {
		return fmt.Errorf("cannot cancel booking that has already ended")
	}

	if err := s.repo.Booking.UpdateStatus(ctx, detail.ID, entity.BookingStatusCancelled); err != nil {
		s.log.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", bookingID))
		return fmt.Errorf("failed to cancel booking")
	}
	detail.Status = entity.BookingStatusCancelled

	s.event("cancelled")
	s.revokeReminder(detail.ID)
	s.notify(detail, "cancelled")

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("by", actor.ID.String()),
		zap.Bool("admin", actor.IsAdmin()))

	return nil
}

func (s *bookingService) GetAllBookings(ctx context.Context, req *request.BookingListFilter) (*response.PaginatedResponse[response.BookingResponse], error) {
	normalizePage(&req.PaginatedRequest)

	filter, err := toRepoFilter(req)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.Booking.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to get bookings")
	}

	total, err := s.repo.Booking.CountAll(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to count bookings")
	}

	return response.NewPaginatedResponse(toBookingResponses(bookings), req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *bookingService) findDetail(ctx context.Context, bookingID string) (*entity.BookingDetail, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s", bookingID)
	}

	detail, err := s.repo.Booking.FindDetailByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("failed to get booking")
	}
	if detail == nil {
		return nil, fmt.Errorf("booking %s %w", bookingID, ErrNotFound)
	}

	return detail, nil
}

func (s *bookingService) resolveAttendees(ctx context.Context, organizerID uuid.UUID, raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid attendee ID format %s", r)
		}
		if id == organizerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	users, err := s.repo.User.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Error("Failed to load attendees", zap.Error(err))
		return nil, fmt.Errorf("failed to load attendees")
	}

	found := make(map[uuid.UUID]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("attendee %s %w", id, ErrNotFound)
		}
	}

	return ids, nil
}

func externalAttendees(in []request.ExternalAttendeeRequest) []entity.ExternalAttendee {
	seen := make(map[string]struct{}, len(in))
	out := make([]entity.ExternalAttendee, 0, len(in))
	for _, ea := range in {
		email := strings.ToLower(strings.TrimSpace(ea.Email))
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}

		name := strings.TrimSpace(ea.Name)
		if name == "" {
			name = email
		}
		out = append(out, entity.ExternalAttendee{ID: uuid.New(), Email: email, Name: name})
	}
	return out
}

func (s *bookingService) armReminder(booking *entity.Booking) {
	if s.reminders == nil {
		return
	}

	handle := s.reminders.ScheduleReminder(booking, s.leadMinutes)
	if handle == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Fired handles are no longer useful
	now := s.now()
	for id, r := range s.pending {
		if r.FireAt.Before(now) {
			delete(s.pending, id)
		}
	}
	s.pending[booking.ID] = handle
}

func (s *bookingService) revokeReminder(bookingID uuid.UUID) {
	s.mu.Lock()
	handle, ok := s.pending[bookingID]
	delete(s.pending, bookingID)
	s.mu.Unlock()

	if ok {
		handle.Cancel()
	}
}

// notify sends booking notifications in the background. Failures are logged.
func (s *bookingService) notify(detail *entity.BookingDetail, event string) {
	if s.notifier == nil {
		return
	}

	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		var err error
		switch event {
		case "created":
			err = s.notifier.BookingCreated(ctx, detail)
		case "cancelled":
			err = s.notifier.BookingCancelled(ctx, detail)
		}
		if err != nil {
			s.log.Error("Failed to send booking notification",
				zap.Error(err),
				zap.String("event", event),
				zap.String("booking_id", detail.ID.String()))
		}
	})
}

func (s *bookingService) event(name string) {
	if s.metrics != nil {
		s.metrics.BookingEvent(name)
	}
}

func isParticipant(detail *entity.BookingDetail, userID uuid.UUID) bool {
	if detail.OrganizerID == userID {
		return true
	}
	for _, u := range detail.Attendees {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

func toRepoFilter(req *request.BookingListFilter) (repository.BookingFilter, error) {
	var filter repository.BookingFilter

	switch entity.BookingStatus(req.Status) {
	case "":
	case entity.BookingStatusPending, entity.BookingStatusConfirmed, entity.BookingStatusCancelled:
		filter.Status = entity.BookingStatus(req.Status)
	default:
		return filter, fmt.Errorf("invalid status %q", req.Status)
	}

	if req.BoardroomID != "" {
		id, err := uuid.Parse(req.BoardroomID)
		if err != nil {
			return filter, fmt.Errorf("invalid boardroom ID format %s", req.BoardroomID)
		}
		filter.BoardroomID = id
	}

	if req.From != nil {
		filter.From = *req.From
	}
	if req.To != nil {
		filter.To = *req.To
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return filter, fmt.Errorf("invalid range: to must be after from")
	}

	return filter, nil
}

func toBookingResponses(bookings []*entity.BookingDetail) []response.BookingResponse {
	out := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, response.BookingToResponse(b))
	}
	return out
}
