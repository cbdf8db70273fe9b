package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository/mysql/model"
)

type followRepository struct {
	DB *gorm.DB
}

var _ domain.FollowRepository = (*followRepository)(nil)

func NewFollowRepository(db *gorm.DB) *followRepository {
	return &followRepository{db}
}

func (m *followRepository) SetState(ctx context.Context, followerID, followingID int64, desired bool) (changed bool, err error) {
	if !desired {
		result := m.DB.WithContext(ctx).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&model.FollowEdge{})
		return result.RowsAffected > 0, result.Error
	}

	row := model.FollowEdge{
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now(),
	}
	result := m.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (m *followRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).
		Error
	return count > 0, err
}

func (m *followRepository) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("following_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

func (m *followRepository) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("follower_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

func (m *followRepository) FetchFollowerIDs(ctx context.Context, userID int64, limit int64) ([]int64, error) {
	var ids []int64
	err := m.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Select("follower_id").
		Where("following_id = ?", userID).
		Order("created_at desc").
		Limit(int(limit)).
		Find(&ids).Error
	return ids, err
}

func (m *followRepository) FetchFollowingIDs(ctx context.Context, userID int64, limit int64) ([]int64, error) {
	var ids []int64
	err := m.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Select("following_id").
		Where("follower_id = ?", userID).
		Order("created_at desc").
		Limit(int(limit)).
		Find(&ids).Error
	return ids, err
}
