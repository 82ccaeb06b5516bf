package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/dto/response"
	"boardroom-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type BoardroomService interface {
	GetBoardrooms(ctx context.Context, req *request.BoardroomFilter) (*response.PaginatedResponse[response.BoardroomResponse], error)
	GetBoardroomByID(ctx context.Context, id string) (*response.BoardroomResponse, error)
	GetAvailability(ctx context.Context, id, date string) (*response.AvailabilityResponse, error)

	// Admin
	CreateBoardroom(ctx context.Context, req *request.CreateBoardroomRequest) (*response.BoardroomResponse, error)
	UpdateBoardroom(ctx context.Context, id string, req *request.UpdateBoardroomRequest) (*response.BoardroomResponse, error)
	DeleteBoardroom(ctx context.Context, id string) error
}

type boardroomService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewBoardroomService(repo *repository.Repository, log *zap.Logger) BoardroomService {
	return &boardroomService{
		repo: repo,
		log:  log.With(zap.String("service", "boardroom")),
		now:  time.Now,
	}
}

func (s *boardroomService) GetBoardrooms(ctx context.Context, req *request.BoardroomFilter) (*response.PaginatedResponse[response.BoardroomResponse], error) {
	normalizePage(&req.PaginatedRequest)

	rooms, err := s.repo.Boardroom.FindAll(ctx, true, req.MinCapacity, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get boardrooms", zap.Error(err))
		return nil, fmt.Errorf("failed to get boardrooms")
	}

	total, err := s.repo.Boardroom.CountAll(ctx, true, req.MinCapacity)
	if err != nil {
		s.log.Error("Failed to count boardrooms", zap.Error(err))
		return nil, fmt.Errorf("failed to count boardrooms")
	}

	data := make([]response.BoardroomResponse, 0, len(rooms))
	for _, room := range rooms {
		data = append(data, response.BoardroomToResponse(room))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *boardroomService) GetBoardroomByID(ctx context.Context, id string) (*response.BoardroomResponse, error) {
	room, err := s.findRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.BoardroomToResponse(room)
	return &resp, nil
}

// GetAvailability lists the live bookings of a room on the given local date.
func (s *boardroomService) GetAvailability(ctx context.Context, id, date string) (*response.AvailabilityResponse, error) {
	room, err := s.findRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	day := s.now()
	if date != "" {
		day, err = time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	bookings, err := s.repo.Booking.FindByBoardroomBetween(ctx, room.ID, from, to)
	if err != nil {
		s.log.Error("Failed to load room bookings", zap.Error(err), zap.String("boardroom_id", id))
		return nil, fmt.Errorf("failed to get availability")
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})

	slots := make([]response.TimeSlot, 0, len(bookings))
	for _, b := range bookings {
		slots = append(slots, response.TimeSlot{
			BookingID: b.ID.String(),
			Purpose:   b.Purpose,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		})
	}

	return &response.AvailabilityResponse{
		Boardroom: response.BoardroomToResponse(room),
		Date:      from.Format(dateLayout),
		Booked:    slots,
	}, nil
}

func (s *boardroomService) CreateBoardroom(ctx context.Context, req *request.CreateBoardroomRequest) (*response.BoardroomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create boardroom validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.now()
	room := &entity.Boardroom{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:      name,
		Location:  strings.TrimSpace(req.Location),
		Capacity:  req.Capacity,
		Amenities: cleanAmenities(req.Amenities),
		IsActive:  true,
	}

	if err := s.repo.Boardroom.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("boardroom name %q %w", name, ErrConflict)
		}
		s.log.Error("Failed to create boardroom", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to create boardroom")
	}

	s.log.Info("Boardroom created", zap.String("boardroom_id", room.ID.String()), zap.String("name", name))

	resp := response.BoardroomToResponse(room)
	return &resp, nil
}

func (s *boardroomService) UpdateBoardroom(ctx context.Context, id string, req *request.UpdateBoardroomRequest) (*response.BoardroomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update boardroom validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	room, err := s.findRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !strings.EqualFold(name, room.Name) {
			if err := s.ensureNameFree(ctx, name, room.ID); err != nil {
				return nil, err
			}
		}
		room.Name = name
	}
	if req.Location != nil {
		room.Location = strings.TrimSpace(*req.Location)
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Amenities != nil {
		room.Amenities = cleanAmenities(req.Amenities)
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	room.UpdatedAt = s.now()

	if err := s.repo.Boardroom.Update(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("boardroom name %q %w", room.Name, ErrConflict)
		}
		s.log.Error("Failed to update boardroom", zap.Error(err), zap.String("boardroom_id", id))
		return nil, fmt.Errorf("failed to update boardroom")
	}

	resp := response.BoardroomToResponse(room)
	return &resp, nil
}

// DeleteBoardroom soft-deletes a room. Rooms with upcoming live bookings
// cannot be deleted; cancel those first.
func (s *boardroomService) DeleteBoardroom(ctx context.Context, id string) error {
	room, err := s.findRoom(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	upcoming, err := s.repo.Booking.FindByBoardroomBetween(ctx, room.ID, now, now.AddDate(10, 0, 0))
	if err != nil {
		s.log.Error("Failed to check upcoming bookings", zap.Error(err), zap.String("boardroom_id", id))
		return fmt.Errorf("failed to delete boardroom")
	}
	if len(upcoming) > 0 {
		return fmt.Errorf("cannot delete boardroom with %d upcoming bookings", len(upcoming))
	}

	if err := s.repo.Boardroom.Delete(ctx, room.ID); err != nil {
		s.log.Error("Failed to delete boardroom", zap.Error(err), zap.String("boardroom_id", id))
		return fmt.Errorf("failed to delete boardroom")
	}

	return nil
}

func (s *boardroomService) findRoom(ctx context.Context, id string) (*entity.Boardroom, error) {
	roomID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid boardroom ID")
	}

	room, err := s.repo.Boardroom.FindByID(ctx, roomID)
	if err != nil {
		s.log.Error("Failed to find boardroom", zap.Error(err), zap.String("boardroom_id", id))
		return nil, fmt.Errorf("failed to get boardroom")
	}
	if room == nil {
		return nil, fmt.Errorf("boardroom %w", ErrNotFound)
	}

	return room, nil
}

func (s *boardroomService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.Boardroom.FindByName(ctx, name)
	if err != nil {
		s.log.Error("Failed to check boardroom name", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to check boardroom name")
	}
	if existing != nil && existing.ID != self {
		return fmt.Errorf("boardroom name %q %w", name, ErrConflict)
	}
	return nil
}

func cleanAmenities(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
