package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository/mysql/model"
)

type postRepository struct {
	DB *gorm.DB
}

var _ domain.PostRepository = (*postRepository)(nil)

// NewPostRepository 创建帖子数据库操作层
func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db}
}

func (m *postRepository) GetByID(ctx context.Context, id int64) (res domain.Post, err error) {
	var post model.Post
	err = m.DB.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		return res, domain.ErrNotFound
	}
	res = post.ToDomain()
	return
}

func (m *postRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Post, error) {
	var posts []model.Post
	err := m.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Post, len(posts))
	for i := range posts {
		res[i] = posts[i].ToDomain()
	}
	return res, nil
}

func (m *postRepository) Store(ctx context.Context, p *domain.Post) error {
	postModel := model.NewPostFromDomain(p)
	result := m.DB.WithContext(ctx).Create(&postModel)
	if result.Error != nil {
		return result.Error
	}
	p.ID = postModel.ID
	p.CreatedAt = postModel.CreatedAt
	p.UpdatedAt = postModel.UpdatedAt
	return nil
}

// AddCounter applies the delta in one conditional UPDATE. GREATEST floors
// the column at zero so a stray -1 arriving first can't drive it negative.
func (m *postRepository) AddCounter(ctx context.Context, id int64, kind domain.CounterKind, delta int64) (newCount int64, err error) {
	col := model.CounterColumn(kind)
	if col == "" {
		return 0, domain.ErrBadParamInput
	}

	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Post{}).
			Where("id = ?", id).
			UpdateColumn(col, gorm.Expr("GREATEST("+col+" + ?, 0)", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		return tx.Model(&model.Post{}).
			Select(col).
			Where("id = ?", id).
			Scan(&newCount).Error
	})
	return
}

// Recount overwrites an edge-backed counter from the edge table. For kinds
// with no edge table the stored value is returned untouched.
func (m *postRepository) Recount(ctx context.Context, id int64, kind domain.CounterKind) (count int64, err error) {
	col := model.CounterColumn(kind)
	if col == "" {
		return 0, domain.ErrBadParamInput
	}

	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recountColumn(tx, id, kind, col, &count)
	})
	return
}

func recountColumn(tx *gorm.DB, id int64, kind domain.CounterKind, col string, count *int64) error {
	if !kind.EdgeBacked() {
		return tx.Model(&model.Post{}).
			Select(col).
			Where("id = ?", id).
			Scan(count).Error
	}

	edgeKind := domain.KindLike
	if kind == domain.CounterReposts {
		edgeKind = domain.KindRepost
	}

	if err := tx.Model(&model.EngagementEdge{}).
		Where("post_id = ? AND kind = ?", id, edgeKind).
		Count(count).Error; err != nil {
		return err
	}

	result := tx.Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn(col, *count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyCounterChanges applies a netted batch in one transaction: touched
// edge-backed counters are recounted from source of truth, buffered kinds
// get their clamped deltas.
func (m *postRepository) ApplyCounterChanges(ctx context.Context, changes []domain.CounterChange) error {
	if len(changes) == 0 {
		return nil
	}

	return m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, change := range changes {
			col := model.CounterColumn(change.Kind)
			if col == "" {
				continue
			}

			if change.Kind.EdgeBacked() {
				var count int64
				if err := recountColumn(tx, change.PostID, change.Kind, col, &count); err != nil {
					if err == domain.ErrNotFound {
						continue // post deleted under us, nothing to repair
					}
					return err
				}
				continue
			}

			if change.Delta == 0 {
				continue
			}
			result := tx.Model(&model.Post{}).
				Where("id = ?", change.PostID).
				UpdateColumn(col, gorm.Expr("GREATEST("+col+" + ?, 0)", change.Delta))
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}

func (m *postRepository) FetchIDs(ctx context.Context, cursor, limit int64) (ids []int64, err error) {
	err = m.DB.WithContext(ctx).
		Model(&model.Post{}).
		Select("id").
		Where("id > ?", cursor).
		Order("id").
		Limit(int(limit)).
		Find(&ids).Error
	return
}
