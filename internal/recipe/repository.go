package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound() error {
	return apperror.NotFound("Recipe not found")
}

// Create 插入一个食谱，ID 为空时生成 UUID v7
func (r *Repository) Create(ctx context.Context, rec *Recipe) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("无法生成UUID v7: %w", err)
		}
		rec.ID = id.String()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("无法创建食谱: %w", err)
	}
	return nil
}

// ListByUser 返回用户的全部食谱，按名称升序
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Recipe, error) {
	recipes := make([]Recipe, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Order("id ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询食谱: %w", err)
	}
	return recipes, nil
}

// GetByID 查询属于 userID 的食谱
func (r *Repository) GetByID(ctx context.Context, id, userID string) (*Recipe, error) {
	var rec Recipe
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("无法查询食谱 %s: %w", id, err)
	}
	return &rec, nil
}

// UpdateName 重命名食谱
func (r *Repository) UpdateName(ctx context.Context, id, userID, name string) (*Recipe, error) {
	res := r.db.WithContext(ctx).Model(&Recipe{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"name": name, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("无法更新食谱 %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound()
	}
	return r.GetByID(ctx, id, userID)
}

// Delete 删除食谱，不会触及任何餐食
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Recipe{})
	if res.Error != nil {
		return fmt.Errorf("无法删除食谱 %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound()
	}
	return nil
}
