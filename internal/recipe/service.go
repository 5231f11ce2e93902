package recipe

import (
	"context"
	"strings"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
)

// MealLog 是食谱模块用到的餐食操作，由 meal.Service 实现
type MealLog interface {
	LogFromMacros(ctx context.Context, userID, description string, t meal.MealType, m nutrition.Macros, date string) (*meal.Meal, error)
	Get(ctx context.Context, userID, id string) (*meal.Meal, error)
}

type Service struct {
	repo  *Repository
	meals MealLog
}

func NewService(repo *Repository, meals MealLog) *Service {
	return &Service{repo: repo, meals: meals}
}

func validateMacros(m nutrition.Macros) error {
	if err := m.Validate(); err != nil {
		return apperror.Validation("All nutritional values are required")
	}
	for _, v := range []float64{m.Calories, m.Protein, m.Carbs, m.Fats} {
		if toFixed(v).GreaterThan(maxValue) {
			return apperror.Validation("Nutritional values must be below %s", maxValue.String())
		}
	}
	return nil
}

// Create 新建食谱。名称去除首尾空白后不能为空。
func (s *Service) Create(ctx context.Context, userID, name, description string, m nutrition.Macros) (*Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("Recipe name is required")
	}
	if err := validateMacros(m); err != nil {
		return nil, err
	}

	rec := &Recipe{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	rec.setMacros(m)
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperror.Storage(err)
	}
	return rec, nil
}

// List 返回用户的全部食谱
func (s *Service) List(ctx context.Context, userID string) ([]Recipe, error) {
	recipes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return recipes, nil
}

// Get 返回用户的一个食谱
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	rec, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return rec, nil
}

// Rename 按补丁修改食谱名称
func (s *Service) Rename(ctx context.Context, userID, id string, patch RecipePatch) (*Recipe, error) {
	if patch.Name == nil || strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.Validation("Recipe name is required")
	}
	rec, err := s.repo.UpdateName(ctx, id, userID, strings.TrimSpace(*patch.Name))
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return rec, nil
}

// Delete 删除食谱
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return apperror.OrStorage(s.repo.Delete(ctx, id, userID))
}

// PromoteMeal 用一条已有餐食的数值创建食谱，name 为空时使用餐食描述
func (s *Service) PromoteMeal(ctx context.Context, userID, mealID, name string) (*Recipe, error) {
	m, err := s.meals.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = m.Description
	}
	return s.Create(ctx, userID, name, m.Description, m.Macros)
}

// AddToMeals 把食谱的数值复制为今天的一餐，描述使用食谱名称
func (s *Service) AddToMeals(ctx context.Context, userID, recipeID, mealType string) (*meal.Meal, error) {
	t, err := meal.ParseMealType(mealType)
	if err != nil {
		return nil, apperror.Validation(meal.MealTypeMessage)
	}
	rec, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	return s.meals.LogFromMacros(ctx, userID, rec.Name, t, rec.Macros(), "")
}
