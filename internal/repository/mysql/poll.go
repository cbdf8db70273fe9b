package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository/mysql/model"
)

type pollRepository struct {
	DB *gorm.DB
}

var _ domain.PollRepository = (*pollRepository)(nil)

func NewPollRepository(db *gorm.DB) *pollRepository {
	return &pollRepository{db}
}

func (m *pollRepository) Store(ctx context.Context, p *domain.Poll) error {
	return m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pollModel := &model.Poll{
			PostID:    p.PostID,
			Question:  p.Question,
			ExpiresAt: p.ExpiresAt,
			CreatedAt: p.CreatedAt,
		}
		if err := tx.Create(pollModel).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrConflict
			}
			return err
		}
		p.ID = pollModel.ID
		p.CreatedAt = pollModel.CreatedAt

		for i := range p.Options {
			optModel := &model.PollOption{
				PollID:   p.ID,
				Position: i,
				Text:     p.Options[i].Text,
			}
			if err := tx.Create(optModel).Error; err != nil {
				return err
			}
			p.Options[i].ID = optModel.ID
			p.Options[i].PollID = p.ID
			p.Options[i].Position = i
		}
		return nil
	})
}

func (m *pollRepository) GetByID(ctx context.Context, id int64) (domain.Poll, error) {
	var pollModel model.Poll
	err := m.DB.WithContext(ctx).First(&pollModel, "id = ?", id).Error
	if err != nil {
		return domain.Poll{}, domain.ErrNotFound
	}

	var options []model.PollOption
	err = m.DB.WithContext(ctx).
		Where("poll_id = ?", id).
		Order("position").
		Find(&options).Error
	if err != nil {
		return domain.Poll{}, err
	}

	return pollModel.ToDomain(options), nil
}

// CastVote records the vote and its two tally increments in ONE transaction:
// a vote row without its increments (or vice versa) can never be observed.
// The unique (poll_id, user_id) index turns the second vote of a same-actor
// race into ErrAlreadyVoted after the first commits.
func (m *pollRepository) CastVote(ctx context.Context, vote domain.PollVote) error {
	return m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check expiry under lock; the usecase check ran on a stale read.
		var pollModel model.Poll
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pollModel, "id = ?", vote.PollID).Error
		if err != nil {
			return domain.ErrNotFound
		}
		if !time.Now().Before(pollModel.ExpiresAt) {
			return domain.ErrPollClosed
		}

		row := model.PollVote{
			PollID:    vote.PollID,
			UserID:    vote.UserID,
			OptionID:  vote.OptionID,
			CreatedAt: vote.CreatedAt,
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now()
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyVoted
			}
			return err
		}

		result := tx.Model(&model.PollOption{}).
			Where("id = ? AND poll_id = ?", vote.OptionID, vote.PollID).
			UpdateColumn("votes", gorm.Expr("votes + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// option does not belong to this poll, roll the vote back too
			return domain.ErrInvalidTarget
		}

		return tx.Model(&model.Poll{}).
			Where("id = ?", vote.PollID).
			UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error
	})
}

func (m *pollRepository) GetVote(ctx context.Context, pollID, userID int64) (domain.PollVote, error) {
	var voteModel model.PollVote
	err := m.DB.WithContext(ctx).
		First(&voteModel, "poll_id = ? AND user_id = ?", pollID, userID).Error
	if err != nil {
		return domain.PollVote{}, domain.ErrNotFound
	}
	return voteModel.ToDomain(), nil
}
