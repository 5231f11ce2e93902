package totals

import (
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
)

// DailyTotals 是某个用户某一天全部餐食的营养数值之和。
// (user_id, date) 唯一，四个字段始终等于那一天所有 Meal 对应字段之和。
type DailyTotals struct {
	ID            string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_daily_totals_user_date,priority:1" json:"userId"`
	Date          string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_totals_user_date,priority:2" json:"date"`
	TotalCalories float64   `gorm:"not null;default:0" json:"totalCalories"`
	TotalProtein  float64   `gorm:"not null;default:0" json:"totalProtein"`
	TotalCarbs    float64   `gorm:"not null;default:0" json:"totalCarbs"`
	TotalFats     float64   `gorm:"not null;default:0" json:"totalFats"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName 固定表名，upsert 语句中需要用它限定列名
func (DailyTotals) TableName() string {
	return "daily_totals"
}

// Macros 返回汇总的四项数值
func (d DailyTotals) Macros() nutrition.Macros {
	return nutrition.Macros{
		Calories: d.TotalCalories,
		Protein:  d.TotalProtein,
		Carbs:    d.TotalCarbs,
		Fats:     d.TotalFats,
	}
}

func (d *DailyTotals) setMacros(m nutrition.Macros) {
	d.TotalCalories = m.Calories
	d.TotalProtein = m.Protein
	d.TotalCarbs = m.Carbs
	d.TotalFats = m.Fats
}

// IsEmpty 判断这一天是否没有任何摄入
func (d DailyTotals) IsEmpty() bool {
	return d.Macros() == nutrition.Macros{}
}
