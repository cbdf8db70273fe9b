package request

import (
	"time"

	"github.com/pulsefeed/engagement-core/domain"
)

type CreatePoll struct {
	PostID    int64     `json:"post_id" validate:"required"`
	Question  string    `json:"question" validate:"required,max=280"`
	Options   []string  `json:"options" validate:"required,min=2,max=4,dive,required,max=50"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// ToDomain: Request -> Domain
func (r *CreatePoll) ToDomain() domain.Poll {
	options := make([]domain.PollOption, len(r.Options))
	for i, text := range r.Options {
		options[i] = domain.PollOption{
			Position: i,
			Text:     text,
		}
	}
	return domain.Poll{
		PostID:    r.PostID,
		Question:  r.Question,
		ExpiresAt: r.ExpiresAt,
		Options:   options,
	}
}

type CastVote struct {
	OptionID int64 `json:"option_id" validate:"required"`
}
