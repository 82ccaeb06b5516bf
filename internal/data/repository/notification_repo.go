package repository

import (
	"context"
	"fmt"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*entity.Notification) error
	FindByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	CountByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewNotificationRepository(db database.PgxIface, log *zap.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "notification")),
	}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create notifications: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO notifications (id, user_id, booking_id, type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, n := range notifications {
		if _, err := tx.Exec(ctx, query,
			n.ID,
			n.UserID,
			n.BookingID,
			n.Type,
			n.Title,
			n.Message,
			n.IsRead,
			n.CreatedAt,
		); err != nil {
			r.log.Error("Failed to create notification",
				zap.Error(err),
				zap.String("user_id", n.UserID.String()),
				zap.String("type", string(n.Type)),
			)
			return fmt.Errorf("create notification for user %s: %w", n.UserID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}

	return nil
}

func (r *notificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, booking_id, type, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		r.log.Error("Failed to find notifications",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			r.log.Error("Failed to scan notification row", zap.Error(err))
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		out = append(out, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return out, nil
}

func (r *notificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID, unreadOnly).Scan(&count); err != nil {
		r.log.Error("Failed to count notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, fmt.Errorf("count notifications for user %s: %w", userID, err)
	}

	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Error("Failed to mark notification read",
			zap.Error(err),
			zap.String("notification_id", id.String()),
		)
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found", id)
	}

	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		r.log.Error("Failed to mark notifications read",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("mark notifications read for user %s: %w", userID, err)
	}

	return result.RowsAffected(), nil
}
