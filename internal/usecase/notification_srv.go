package usecase

import (
	"context"
	"fmt"
	"strings"

	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID, req *request.NotificationFilter) (*response.PaginatedResponse[response.NotificationResponse], error)
	MarkAsRead(ctx context.Context, userID uuid.UUID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	log              *zap.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, log *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		log:              log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, req *request.NotificationFilter) (*response.PaginatedResponse[response.NotificationResponse], error) {
	normalizePage(&req.PaginatedRequest)

	notifications, err := s.notificationRepo.FindByUserID(ctx, userID, req.UnreadOnly, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get notifications")
	}

	total, err := s.notificationRepo.CountByUserID(ctx, userID, req.UnreadOnly)
	if err != nil {
		s.log.Error("Failed to count notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to count notifications")
	}

	data := make([]response.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		data = append(data, response.NotificationToResponse(n))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

// MarkAsRead only touches notifications owned by userID; anything else reads
// as not found.
func (s *notificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, notificationID string) error {
	id, err := uuid.Parse(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification ID")
	}

	if err := s.notificationRepo.MarkAsRead(ctx, id, userID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("notification %w", ErrNotFound)
		}
		s.log.Error("Failed to mark notification read", zap.Error(err), zap.String("notification_id", notificationID))
		return fmt.Errorf("failed to mark notification read")
	}

	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.log.Error("Failed to mark notifications read", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("failed to mark notifications read")
	}
	return n, nil
}
