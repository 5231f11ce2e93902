package meal

import (
	"errors"
	"net/http"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/validation"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// --- API 请求/响应模型 ---

type parseMealRequest struct {
	Description string `json:"description"`
	MealType    string `json:"mealType"`
}

// TotalsResponse 与每日汇总的JSON形状一致
type TotalsResponse struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"totalCalories"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFats     float64 `json:"totalFats"`
}

type dayResponse struct {
	Meals  []Meal         `json:"meals"`
	Totals TotalsResponse `json:"totals"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetDay 处理 GET /api/meals?date=YYYY-MM-DD
func (h *Handler) GetDay(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	day, err := h.svc.GetDay(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dayResponse{
		Meals: day.Meals,
		Totals: TotalsResponse{
			Date:          day.Date,
			TotalCalories: day.Totals.Calories,
			TotalProtein:  day.Totals.Protein,
			TotalCarbs:    day.Totals.Carbs,
			TotalFats:     day.Totals.Fats,
		},
	})
}

// ParseMeal 处理 POST /api/parse-meal
func (h *Handler) ParseMeal(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var req parseMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("Meal description is required"))
		return
	}

	m, err := h.svc.LogFromText(c.Request.Context(), userID, req.Description, req.MealType)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": m})
}

// Get 处理 GET /api/meals/:id
func (h *Handler) Get(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	m, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": m})
}

// Patch 处理 PATCH /api/meals/:id，只接受 mealType
func (h *Handler) Patch(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	var patch MealPatch
	if err := validation.BindStrict(c, &patch); err != nil {
		if errors.Is(err, validation.ErrUnknownField) {
			apperror.Respond(c, apperror.Validation("Only mealType can be changed"))
			return
		}
		apperror.Respond(c, apperror.Validation(MealTypeMessage))
		return
	}

	m, err := h.svc.ChangeType(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "meal": m})
}

// Delete 处理 DELETE /api/meals/:id
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
