package meal

import (
	"fmt"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
)

// MealType 是餐次
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypeMessage 是餐次无效时返回给用户的提示
const MealTypeMessage = "Valid meal type is required (breakfast, lunch, dinner, or snack)"

// ParseMealType 校验并转换餐次字符串
func ParseMealType(s string) (MealType, error) {
	switch t := MealType(s); t {
	case Breakfast, Lunch, Dinner, Snack:
		return t, nil
	default:
		return "", fmt.Errorf("无效的餐次: %q", s)
	}
}

// Meal 是一条餐食记录。
// 除 MealType 外创建后不可修改；营养数值是创建时的快照，不引用任何食谱。
type Meal struct {
	ID          string   `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID      string   `gorm:"type:varchar(36);not null;index:idx_meal_user_date,priority:1" json:"userId"`
	Date        string   `gorm:"type:varchar(10);not null;index:idx_meal_user_date,priority:2" json:"date"`
	Description string   `gorm:"type:text;not null" json:"description"`
	MealType    MealType `gorm:"type:varchar(20);not null;default:breakfast" json:"mealType"`

	nutrition.Macros `gorm:"embedded"`

	CreatedAt time.Time `json:"createdAt"`
}

// MealPatch 列出了餐食唯一允许修改的字段
type MealPatch struct {
	MealType *string `json:"mealType" binding:"required,mealtype"`
}

// Day 是某一天的餐食列表及其汇总
type Day struct {
	Date   string
	Meals  []Meal
	Totals nutrition.Macros
}
