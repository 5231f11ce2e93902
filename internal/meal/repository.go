package meal

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 是餐食的存储层。每个查询都带 user_id 条件，跨用户的记录在查询层面不可见。
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx 返回在给定事务内执行的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// DB 返回底层连接，供需要开启事务的调用方使用
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create 插入一条餐食，ID 为空时生成 UUID v7
func (r *Repository) Create(ctx context.Context, m *Meal) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("无法生成UUID v7: %w", err)
		}
		m.ID = id.String()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("无法创建餐食记录: %w", err)
	}
	return nil
}

// GetByID 查询属于 userID 的餐食，不存在或属于其他用户时返回 NotFound
func (r *Repository) GetByID(ctx context.Context, id, userID string) (*Meal, error) {
	var m Meal
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Meal not found")
	}
	if err != nil {
		return nil, fmt.Errorf("无法查询餐食 %s: %w", id, err)
	}
	return &m, nil
}

// ListByDate 返回某天的全部餐食，最新创建的在前
func (r *Repository) ListByDate(ctx context.Context, userID, date string) ([]Meal, error) {
	meals := make([]Meal, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC").
		Order("id DESC").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询 %s 的餐食: %w", date, err)
	}
	return meals, nil
}

// UpdateMealType 修改餐次，没有匹配 (id, userID) 的记录时返回 NotFound
func (r *Repository) UpdateMealType(ctx context.Context, id, userID string, t MealType) (*Meal, error) {
	res := r.db.WithContext(ctx).Model(&Meal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("meal_type", t)
	if res.Error != nil {
		return nil, fmt.Errorf("无法更新餐食 %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Meal not found")
	}
	return r.GetByID(ctx, id, userID)
}

// Delete 删除餐食并返回被删除的记录，调用方据此知道需要重算哪一天。
// 应在事务内调用，以保证读到的记录就是被删除的那一条。
func (r *Repository) Delete(ctx context.Context, id, userID string) (*Meal, error) {
	var m Meal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Meal not found")
	}
	if err != nil {
		return nil, fmt.Errorf("无法查询餐食 %s: %w", id, err)
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Meal{})
	if res.Error != nil {
		return nil, fmt.Errorf("无法删除餐食 %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Meal not found")
	}
	return &m, nil
}

// SumByDate 汇总某天所有餐食的营养数值，没有餐食时为零
func (r *Repository) SumByDate(ctx context.Context, userID, date string) (nutrition.Macros, error) {
	var sum nutrition.Macros
	err := r.db.WithContext(ctx).Model(&Meal{}).
		Select("COALESCE(SUM(calories), 0) AS calories, COALESCE(SUM(protein), 0) AS protein, " +
			"COALESCE(SUM(carbs), 0) AS carbs, COALESCE(SUM(fats), 0) AS fats").
		Where("user_id = ? AND date = ?", userID, date).
		Scan(&sum).Error
	if err != nil {
		return nutrition.Macros{}, fmt.Errorf("无法汇总 %s 的餐食: %w", date, err)
	}
	return sum, nil
}

// ListDatesSince 返回用户从 from 起（含）有餐食的所有日期
func (r *Repository) ListDatesSince(ctx context.Context, userID, from string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&Meal{}).
		Distinct("date").
		Where("user_id = ? AND date >= ?", userID, from).
		Order("date DESC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询餐食日期: %w", err)
	}
	return dates, nil
}

// ListUserIDsSince 返回从 from 起（含）有餐食的所有用户
func (r *Repository) ListUserIDsSince(ctx context.Context, from string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Meal{}).
		Distinct("user_id").
		Where("date >= ?", from).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询用户列表: %w", err)
	}
	return ids, nil
}
