package totals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregator 维护每日汇总。
// 新增餐食用一条原子的累加 upsert；删除餐食在行锁下用全部剩余餐食重算。
// 两条路径都在调用方的事务里执行，与餐食本身的写入一起提交。
type Aggregator struct {
	db    *gorm.DB
	meals *meal.Repository
	now   func() time.Time
}

func NewAggregator(db *gorm.DB, meals *meal.Repository) *Aggregator {
	return &Aggregator{db: db, meals: meals, now: time.Now}
}

func newRowID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return id.String(), nil
}

// ApplyMealAdded 把一条已写入的餐食累加到当天汇总。
// 行不存在时以这条餐食的数值创建；存在时在同一条语句里做加法，不经过读-改-写。
func (a *Aggregator) ApplyMealAdded(ctx context.Context, tx *gorm.DB, m *meal.Meal) (*DailyTotals, error) {
	if tx == nil {
		tx = a.db
	}
	id, err := newRowID()
	if err != nil {
		return nil, err
	}

	row := DailyTotals{
		ID:        id,
		UserID:    m.UserID,
		Date:      m.Date,
		UpdatedAt: a.now(),
	}
	row.setMacros(m.Macros)

	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "total_calories"}, Value: gorm.Expr("daily_totals.total_calories + excluded.total_calories")},
			{Column: clause.Column{Name: "total_protein"}, Value: gorm.Expr("daily_totals.total_protein + excluded.total_protein")},
			{Column: clause.Column{Name: "total_carbs"}, Value: gorm.Expr("daily_totals.total_carbs + excluded.total_carbs")},
			{Column: clause.Column{Name: "total_fats"}, Value: gorm.Expr("daily_totals.total_fats + excluded.total_fats")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("无法累加 %s 的每日汇总: %w", m.Date, err)
	}

	return a.find(ctx, tx, m.UserID, m.Date)
}

// RecomputeTotals 把 (userID, date) 的汇总重写为当前全部餐食之和。
// 先确保汇总行存在并加行锁，再求和，这样并发的累加会等到本次重算提交之后。
// 没有餐食时写入全零行，而不是删除。
func (a *Aggregator) RecomputeTotals(ctx context.Context, tx *gorm.DB, userID, date string) (*DailyTotals, error) {
	if tx == nil {
		var result *DailyTotals
		err := a.db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
			var err error
			result, err = a.RecomputeTotals(ctx, inner, userID, date)
			return err
		})
		return result, err
	}

	id, err := newRowID()
	if err != nil {
		return nil, err
	}
	// 1. 确保行存在
	empty := DailyTotals{ID: id, UserID: userID, Date: date, UpdatedAt: a.now()}
	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&empty).Error
	if err != nil {
		return nil, fmt.Errorf("无法创建 %s 的每日汇总: %w", date, err)
	}

	// 2. 锁定该行
	var row DailyTotals
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, date).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("无法锁定 %s 的每日汇总: %w", date, err)
	}

	// 3. 求和并写入精确值
	sum, err := a.meals.WithTx(tx).SumByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	row.setMacros(sum)
	row.UpdatedAt = a.now()

	err = tx.WithContext(ctx).Model(&DailyTotals{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"total_calories": row.TotalCalories,
			"total_protein":  row.TotalProtein,
			"total_carbs":    row.TotalCarbs,
			"total_fats":     row.TotalFats,
			"updated_at":     row.UpdatedAt,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("无法写入 %s 的每日汇总: %w", date, err)
	}
	return &row, nil
}

// Get 读取 (userID, date) 的汇总，不存在时返回 NotFound
func (a *Aggregator) Get(ctx context.Context, userID, date string) (*DailyTotals, error) {
	return a.find(ctx, a.db, userID, date)
}

func (a *Aggregator) find(ctx context.Context, db *gorm.DB, userID, date string) (*DailyTotals, error) {
	var row DailyTotals
	err := db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Daily totals not found")
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取 %s 的每日汇总: %w", date, err)
	}
	return &row, nil
}

// ForMeals 返回供 meal.Service 使用的适配器
func (a *Aggregator) ForMeals() meal.TotalsKeeper {
	return mealHooks{agg: a}
}

type mealHooks struct {
	agg *Aggregator
}

func (h mealHooks) ApplyMealAdded(ctx context.Context, tx *gorm.DB, m *meal.Meal) (nutrition.Macros, error) {
	row, err := h.agg.ApplyMealAdded(ctx, tx, m)
	if err != nil {
		return nutrition.Macros{}, err
	}
	return row.Macros(), nil
}

func (h mealHooks) RecomputeTotals(ctx context.Context, tx *gorm.DB, userID, date string) (nutrition.Macros, error) {
	row, err := h.agg.RecomputeTotals(ctx, tx, userID, date)
	if err != nil {
		return nutrition.Macros{}, err
	}
	return row.Macros(), nil
}

// Current 没有汇总行等同于空的一天
func (h mealHooks) Current(ctx context.Context, userID, date string) (nutrition.Macros, error) {
	row, err := h.agg.Get(ctx, userID, date)
	if errors.Is(err, apperror.ErrNotFound) {
		return nutrition.Macros{}, nil
	}
	if err != nil {
		return nutrition.Macros{}, err
	}
	return row.Macros(), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
