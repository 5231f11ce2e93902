package recipe

import (
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/shopspring/decimal"
)

// Recipe 是可重复使用的营养模板。营养数值以两位小数的定点数保存。
// 添加为餐食时复制数值，之后对食谱的修改或删除不会影响已有餐食。
type Recipe struct {
	ID          string          `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID      string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Calories    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"calories"`
	Protein     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"protein"`
	Carbs       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"carbs"`
	Fats        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fats"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Macros 把定点数转换为餐食使用的浮点数
func (r Recipe) Macros() nutrition.Macros {
	return nutrition.Macros{
		Calories: r.Calories.InexactFloat64(),
		Protein:  r.Protein.InexactFloat64(),
		Carbs:    r.Carbs.InexactFloat64(),
		Fats:     r.Fats.InexactFloat64(),
	}
}

// maxValue 是 decimal(10,2) 能表示的最大值
var maxValue = decimal.RequireFromString("99999999.99")

// toFixed 四舍五入到两位小数
func toFixed(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func (r *Recipe) setMacros(m nutrition.Macros) {
	r.Calories = toFixed(m.Calories)
	r.Protein = toFixed(m.Protein)
	r.Carbs = toFixed(m.Carbs)
	r.Fats = toFixed(m.Fats)
}

// RecipePatch 列出了食谱唯一允许修改的字段
type RecipePatch struct {
	Name *string `json:"name" binding:"required"`
}
