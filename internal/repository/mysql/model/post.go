package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type Post struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	UserID       int64     `gorm:"column:user_id;not null;index"`
	Content      string    `gorm:"type:text;not null"`
	LikesCount   int64     `gorm:"column:likes_count;default:0"`
	RepostsCount int64     `gorm:"column:reposts_count;default:0"`
	RepliesCount int64     `gorm:"column:replies_count;default:0"`
	ViewsCount   int64     `gorm:"column:views_count;default:0"`
	UpdatedAt    time.Time `gorm:"type:datetime"`
	CreatedAt    time.Time `gorm:"type:datetime"`
}

func (Post) TableName() string {
	return "post"
}

// CounterColumn maps a counter kind to its column name. The returned name
// is only ever interpolated from this fixed set, never from user input.
func CounterColumn(kind domain.CounterKind) string {
	switch kind {
	case domain.CounterLikes:
		return "likes_count"
	case domain.CounterReposts:
		return "reposts_count"
	case domain.CounterReplies:
		return "replies_count"
	case domain.CounterViews:
		return "views_count"
	}
	return ""
}

func (m *Post) ToDomain() domain.Post {
	return domain.Post{
		ID:      m.ID,
		Content: m.Content,
		User: domain.User{
			ID: m.UserID,
		},
		LikesCount:   m.LikesCount,
		RepostsCount: m.RepostsCount,
		RepliesCount: m.RepliesCount,
		ViewsCount:   m.ViewsCount,
		UpdatedAt:    m.UpdatedAt,
		CreatedAt:    m.CreatedAt,
	}
}

func NewPostFromDomain(p *domain.Post) *Post {
	return &Post{
		ID:           p.ID,
		UserID:       p.User.ID,
		Content:      p.Content,
		LikesCount:   p.LikesCount,
		RepostsCount: p.RepostsCount,
		RepliesCount: p.RepliesCount,
		ViewsCount:   p.ViewsCount,
		UpdatedAt:    p.UpdatedAt,
		CreatedAt:    p.CreatedAt,
	}
}
