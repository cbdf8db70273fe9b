package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository/mysql/model"
)

type userRepository struct {
	DB *gorm.DB
}

var _ domain.UserRepository = (*userRepository)(nil)

// NewUserRepository will create an implementation of domain.UserRepository
func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{
		DB: db,
	}
}

func (m *userRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	var user model.User
	if err := m.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return domain.User{}, domain.ErrNotFound
	}

	return user.ToDomain(), nil
}

func (m *userRepository) GetByIDs(ctx context.Context, uids []int64) ([]domain.User, error) {
	var users []model.User
	err := m.DB.WithContext(ctx).Model(&model.User{}).Where("id in ?", uids).Find(&users).Error
	res := make([]domain.User, len(users))
	for i := range users {
		res[i] = users[i].ToDomain()
	}
	return res, err
}

func userCounterColumn(kind domain.UserCounterKind) string {
	switch kind {
	case domain.CounterFollowers:
		return "followers_count"
	case domain.CounterFollowing:
		return "following_count"
	}
	return ""
}

func (m *userRepository) AddCounter(ctx context.Context, id int64, kind domain.UserCounterKind, delta int64) (newCount int64, err error) {
	col := userCounterColumn(kind)
	if col == "" {
		return 0, domain.ErrBadParamInput
	}

	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ?", id).
			UpdateColumn(col, gorm.Expr("GREATEST("+col+" + ?, 0)", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		return tx.Model(&model.User{}).
			Select(col).
			Where("id = ?", id).
			Scan(&newCount).Error
	})
	return
}

// RecountFollows is the reconciliation sweep for the follow counters,
// recomputed from the edge table inside one transaction.
func (m *userRepository) RecountFollows(ctx context.Context, id int64) (followers, following int64, err error) {
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FollowEdge{}).
			Where("following_id = ?", id).
			Count(&followers).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.FollowEdge{}).
			Where("follower_id = ?", id).
			Count(&following).Error; err != nil {
			return err
		}

		result := tx.Model(&model.User{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"followers_count": followers,
				"following_count": following,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return
}
