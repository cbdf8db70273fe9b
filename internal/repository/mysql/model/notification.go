package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type Notification struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	RecipientID int64     `gorm:"column:recipient_id;not null;index"`
	ActorID     int64     `gorm:"column:actor_id;not null"`
	Type        string    `gorm:"type:varchar(16);not null"`
	TargetID    int64     `gorm:"column:target_id;default:0"`
	IsRead      bool      `gorm:"column:is_read;default:false"`
	CreatedAt   time.Time `gorm:"type:datetime;index"`
}

func (Notification) TableName() string {
	return "notification"
}

func NewNotificationFromDomain(n *domain.Notification) *Notification {
	return &Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Type:        string(n.Type),
		TargetID:    n.TargetID,
		IsRead:      n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

func (m *Notification) ToDomain() domain.Notification {
	return domain.Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		ActorID:     m.ActorID,
		Type:        domain.NotificationType(m.Type),
		TargetID:    m.TargetID,
		Read:        m.IsRead,
		CreatedAt:   m.CreatedAt,
	}
}
