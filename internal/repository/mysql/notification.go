package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository"
	"github.com/pulsefeed/engagement-core/internal/repository/mysql/model"
)

type notificationRepository struct {
	DB *gorm.DB
}

var _ domain.NotificationRepository = (*notificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *notificationRepository {
	return &notificationRepository{db}
}

func (m *notificationRepository) Store(ctx context.Context, n *domain.Notification) error {
	row := model.NewNotificationFromDomain(n)
	result := m.DB.WithContext(ctx).Create(row)
	if result.Error != nil {
		return result.Error
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

func (m *notificationRepository) FetchByRecipient(ctx context.Context, recipientID int64, cursor string, limit int64) ([]domain.Notification, string, error) {
	decodedCursor, err := repository.DecodeCursor(cursor)
	if err != nil && cursor != "" {
		return nil, "", domain.ErrBadParamInput
	}

	repository.PageVerify(&limit)
	query := m.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at desc").
		Limit(int(limit))
	if cursor != "" {
		query = query.Where("created_at < ?", decodedCursor)
	}

	var rows []model.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	res := make([]domain.Notification, len(rows))
	for i := range rows {
		res[i] = rows[i].ToDomain()
	}

	nextCursor := ""
	if len(res) > 0 {
		nextCursor = repository.EncodeCursor(res[len(res)-1].CreatedAt)
	}
	return res, nextCursor, nil
}

func (m *notificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).
		Error
	return count, err
}

func (m *notificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	result := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *notificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	return m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).
		Error
}
