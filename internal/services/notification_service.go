package services

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
)

type NotificationService struct{ core }

func NewNotificationService(d Deps) *NotificationService { return &NotificationService{newCore(d)} }

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.Notification
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Notifications().ListByUser(ctx, userID, unreadOnly, limit)
		return err
	})
	return out, err
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.write(ctx, "mark_notification_read", func(ctx context.Context, tx repo.Tx) error {
		return tx.Notifications().MarkRead(ctx, id, userID)
	})
}
