package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

// EngagementEdge enforces at most one edge per (post, user, kind) at the
// storage layer; the unique index is the server-side uniqueness contract.
type EngagementEdge struct {
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:idx_post_user_kind"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_post_user_kind;index:idx_user_kind"`
	Kind      string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_post_user_kind;index:idx_user_kind"`
	CreatedAt time.Time `gorm:"type:datetime"`
}

func (EngagementEdge) TableName() string {
	return "engagement_edge"
}

func NewEngagementEdgeFromDomain(e domain.EngagementEdge) EngagementEdge {
	return EngagementEdge{
		PostID:    e.PostID,
		UserID:    e.UserID,
		Kind:      string(e.Kind),
		CreatedAt: e.CreatedAt,
	}
}
