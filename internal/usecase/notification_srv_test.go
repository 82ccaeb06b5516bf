package usecase

import (
	"context"
	"errors"
	"testing"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/dto/request"

	"github.com/google/uuid"
)

func TestNotificationService(t *testing.T) {
	repo, f := newFakes()
	svc := NewNotificationService(repo.Notification, nopLog)
	owner, other := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		f.notifications.created = append(f.notifications.created, &entity.Notification{
			BaseSimple: entity.BaseSimple{ID: uuid.New()},
			UserID:     owner,
			Type:       entity.NotificationMeetingReminder,
		})
	}
	first := f.notifications.created[0].ID.String()

	if err := svc.MarkAsRead(context.Background(), other, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("another user's notification should read as not found, got %v", err)
	}
	if err := svc.MarkAsRead(context.Background(), owner, first); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}

	unread, err := svc.GetNotifications(context.Background(), owner, &request.NotificationFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if unread.Pagination.Total != 2 || unread.Pagination.Page != 1 || unread.Pagination.PerPage != 10 {
		t.Fatalf("unexpected pagination %+v", unread.Pagination)
	}

	n, err := svc.MarkAllAsRead(context.Background(), owner)
	if err != nil || n != 2 {
		t.Fatalf("MarkAllAsRead() = %d, %v; want 2, nil", n, err)
	}
}
