package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

const maxNotificationPage = 100

// NotificationService lists notifications and marks them read.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// List returns up to limit notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationDB, error) {
	if limit <= 0 || limit > maxNotificationPage {
		limit = maxNotificationPage
	}
	out, err := s.store.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		logger.Log.Errorw("failed to list notifications", "userID", userID, "error", err)
		return nil, err
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, id)
}
