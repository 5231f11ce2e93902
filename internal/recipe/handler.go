package recipe

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/validation"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// --- API 请求模型 ---

// createRecipeRequest 用指针区分缺失的字段
type createRecipeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fats        *float64 `json:"fats"`
}

type addToMealsRequest struct {
	RecipeID string `json:"recipeId"`
	MealType string `json:"mealType"`
}

type fromMealRequest struct {
	MealID string `json:"mealId"`
	Name   string `json:"name"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List 处理 GET /api/recipes
func (h *Handler) List(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	recipes, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// Create 处理 POST /api/recipes
func (h *Handler) Create(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("All nutritional values are required"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apperror.Respond(c, apperror.Validation("Recipe name is required"))
		return
	}
	if req.Calories == nil || req.Protein == nil || req.Carbs == nil || req.Fats == nil {
		apperror.Respond(c, apperror.Validation("All nutritional values are required"))
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), userID, req.Name, req.Description, nutrition.Macros{
		Calories: *req.Calories,
		Protein:  *req.Protein,
		Carbs:    *req.Carbs,
		Fats:     *req.Fats,
	})
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": rec})
}

// Patch 处理 PATCH /api/recipes/:id，只接受 name
func (h *Handler) Patch(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var patch RecipePatch
	if err := validation.BindStrict(c, &patch); err != nil {
		if errors.Is(err, validation.ErrUnknownField) {
			apperror.Respond(c, apperror.Validation("Only name can be changed"))
			return
		}
		apperror.Respond(c, apperror.Validation("Recipe name is required"))
		return
	}

	rec, err := h.svc.Rename(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": rec})
}

// Delete 处理 DELETE /api/recipes/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddToMeals 处理 POST /api/recipes/add-to-meals
func (h *Handler) AddToMeals(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var req addToMealsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecipeID == "" {
		apperror.Respond(c, apperror.Validation("Recipe ID is required"))
		return
	}

	m, err := h.svc.AddToMeals(c.Request.Context(), userID, req.RecipeID, req.MealType)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": m})
}

// FromMeal 处理 POST /api/recipes/from-meal，把一条餐食保存为食谱
func (h *Handler) FromMeal(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var req fromMealRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MealID == "" {
		apperror.Respond(c, apperror.Validation("Meal ID is required"))
		return
	}

	rec, err := h.svc.PromoteMeal(c.Request.Context(), userID, req.MealID, req.Name)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": rec})
}
