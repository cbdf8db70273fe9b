package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	Name           string    `gorm:"type:varchar(45);not null"`
	Username       string    `gorm:"type:varchar(45);not null;uniqueIndex"`
	FollowersCount int64     `gorm:"column:followers_count;default:0"`
	FollowingCount int64     `gorm:"column:following_count;default:0"`
	UpdatedAt      time.Time `gorm:"type:datetime"`
	CreatedAt      time.Time `gorm:"type:datetime"`
}

func (User) TableName() string {
	return "user"
}

func (m *User) ToDomain() domain.User {
	return domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Username:       m.Username,
		FollowersCount: m.FollowersCount,
		FollowingCount: m.FollowingCount,
		UpdatedAt:      m.UpdatedAt,
		CreatedAt:      m.CreatedAt,
	}
}
