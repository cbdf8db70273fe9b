package model

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type Poll struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	PostID     int64     `gorm:"column:post_id;not null;uniqueIndex"`
	Question   string    `gorm:"type:varchar(255);not null"`
	TotalVotes int64     `gorm:"column:total_votes;default:0"`
	ExpiresAt  time.Time `gorm:"type:datetime;not null"`
	CreatedAt  time.Time `gorm:"type:datetime"`
}

func (Poll) TableName() string {
	return "poll"
}

type PollOption struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	PollID   int64  `gorm:"column:poll_id;not null;index"`
	Position int    `gorm:"column:position;not null"`
	Text     string `gorm:"type:varchar(100);not null"`
	Votes    int64  `gorm:"default:0"`
}

func (PollOption) TableName() string {
	return "poll_option"
}

// PollVote is permanent once cast; the unique (poll_id, user_id) index is
// what rejects the second vote in a same-actor race.
type PollVote struct {
	PollID    int64     `gorm:"column:poll_id;not null;uniqueIndex:idx_poll_user"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_poll_user"`
	OptionID  int64     `gorm:"column:option_id;not null"`
	CreatedAt time.Time `gorm:"type:datetime"`
}

func (PollVote) TableName() string {
	return "poll_vote"
}

func (m *Poll) ToDomain(options []PollOption) domain.Poll {
	p := domain.Poll{
		ID:         m.ID,
		PostID:     m.PostID,
		Question:   m.Question,
		TotalVotes: m.TotalVotes,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
	}
	for _, opt := range options {
		p.Options = append(p.Options, domain.PollOption{
			ID:       opt.ID,
			PollID:   opt.PollID,
			Position: opt.Position,
			Text:     opt.Text,
			Votes:    opt.Votes,
		})
	}
	return p
}

func (m *PollVote) ToDomain() domain.PollVote {
	return domain.PollVote{
		PollID:    m.PollID,
		UserID:    m.UserID,
		OptionID:  m.OptionID,
		CreatedAt: m.CreatedAt,
	}
}
