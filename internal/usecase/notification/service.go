package notification

import (
	"context"

	"github.com/pulsefeed/engagement-core/domain"
)

type Service struct {
	notificationRepo domain.NotificationRepository
}

var _ domain.NotificationUsecase = (*Service)(nil)

func NewService(n domain.NotificationRepository) *Service {
	return &Service{
		notificationRepo: n,
	}
}

func (s *Service) Fetch(ctx context.Context, recipientID int64, cursor string, limit int64) ([]domain.Notification, string, error) {
	return s.notificationRepo.FetchByRecipient(ctx, recipientID, cursor, limit)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, id, recipientID int64) error {
	return s.notificationRepo.MarkRead(ctx, id, recipientID)
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}
