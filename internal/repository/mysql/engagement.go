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

type engagementRepository struct {
	DB *gorm.DB
}

// mysql层只负责数据库操作
var _ domain.EngagementRepository = (*engagementRepository)(nil)

// NewEngagementRepository 创建边表数据库操作层
func NewEngagementRepository(db *gorm.DB) *engagementRepository {
	return &engagementRepository{db}
}

// Toggle flips the edge inside one transaction. Two racing toggles for the
// same key serialize on the unique index: one inserts, the other either
// deletes it or loses the insert race and gets ErrConflict.
func (m *engagementRepository) Toggle(ctx context.Context, edge domain.EngagementEdge) (on bool, err error) {
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("post_id = ? AND user_id = ? AND kind = ?", edge.PostID, edge.UserID, edge.Kind).
			Delete(&model.EngagementEdge{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			on = false
			return nil
		}

		row := model.NewEngagementEdgeFromDomain(edge)
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now()
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrConflict
			}
			return err
		}
		on = true
		return nil
	})
	return
}

// SetState is the idempotent primitive: insert-ignore when desired, delete
// when not. RowsAffected tells whether this call actually changed anything.
func (m *engagementRepository) SetState(ctx context.Context, edge domain.EngagementEdge, desired bool) (changed bool, err error) {
	if !desired {
		result := m.DB.WithContext(ctx).
			Where("post_id = ? AND user_id = ? AND kind = ?", edge.PostID, edge.UserID, edge.Kind).
			Delete(&model.EngagementEdge{})
		return result.RowsAffected > 0, result.Error
	}

	row := model.NewEngagementEdgeFromDomain(edge)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	result := m.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (m *engagementRepository) IsEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.EngagementEdge{}).
		Where("post_id = ? AND user_id = ? AND kind = ?", edge.PostID, edge.UserID, edge.Kind).
		Count(&count).
		Error
	return count > 0, err
}

func (m *engagementRepository) CountEdges(ctx context.Context, postID int64, kind domain.EngagementKind) (int64, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.EngagementEdge{}).
		Where("post_id = ? AND kind = ?", postID, kind).
		Count(&count).
		Error
	return count, err
}

func (m *engagementRepository) FetchEngagedTargets(ctx context.Context, userID int64, kind domain.EngagementKind, limit int64) ([]int64, error) {
	var res []int64
	err := m.DB.WithContext(ctx).
		Model(&model.EngagementEdge{}).
		Select("post_id").
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("post_id desc").
		Limit(int(limit)).
		Find(&res).Error

	return res, err
}
