package totals

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// maxHistoryDays 限制单次历史查询的窗口
const maxHistoryDays = 366

type Handler struct {
	history     *History
	defaultDays int
}

func NewHandler(history *History, defaultDays int) *Handler {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &Handler{history: history, defaultDays: defaultDays}
}

// GetHistory 处理 GET /api/history?days=7&fill=false
func (h *Handler) GetHistory(c *gin.Context) {
	userID, err := user.CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	days := h.defaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryDays {
			apperror.Respond(c, apperror.Validation("days must be between 1 and %d", maxHistoryDays))
			return
		}
		days = n
	}
	fill, _ := strconv.ParseBool(c.DefaultQuery("fill", "false"))

	rows, err := h.history.ListRecentTotals(c.Request.Context(), userID, days)
	if err != nil {
		apperror.Respond(c, apperror.Storage(err))
		return
	}
	if fill {
		rows = FillWindow(userID, h.history.Window(days), rows)
	}
	c.JSON(http.StatusOK, gin.H{"totals": rows})
}
