package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type FollowEdge struct {
	FollowerID  int64     `gorm:"column:follower_id;not null;uniqueIndex:idx_follower_following"`
	FollowingID int64     `gorm:"column:following_id;not null;uniqueIndex:idx_follower_following;index"`
	CreatedAt   time.Time `gorm:"type:datetime"`
}

func (FollowEdge) TableName() string {
	return "follow_edge"
}

func NewFollowEdgeFromDomain(e domain.FollowEdge) FollowEdge {
	return FollowEdge{
		FollowerID:  e.FollowerID,
		FollowingID: e.FollowingID,
		CreatedAt:   e.CreatedAt,
	}
}
