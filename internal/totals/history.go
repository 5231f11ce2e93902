package totals

import (
	"context"
	"fmt"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"gorm.io/gorm"
)

// History 是每日汇总的只读视图
type History struct {
	db  *gorm.DB
	cal *calendar.Calendar
}

func NewHistory(db *gorm.DB, cal *calendar.Calendar) *History {
	return &History{db: db, cal: cal}
}

// ListRecentTotals 返回从今天起往前 windowDays 天内存在的汇总行，最近的在前。
// 没有汇总行的日期不会出现在结果中，调用方应视为零。
func (h *History) ListRecentTotals(ctx context.Context, userID string, windowDays int) ([]DailyTotals, error) {
	dates := h.cal.Window(windowDays)
	rows := make([]DailyTotals, 0, len(dates))
	if len(dates) == 0 {
		return rows, nil
	}

	err := h.db.WithContext(ctx).
		Where("user_id = ? AND date IN ?", userID, dates).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询历史汇总: %w", err)
	}
	return rows, nil
}

// Window 返回与 ListRecentTotals 相同的日期窗口，最近的在前
func (h *History) Window(windowDays int) []string {
	return h.cal.Window(windowDays)
}

// FillWindow 为窗口内缺失的日期补上全零的汇总，结果与 dates 顺序一致。
// 补出来的行没有 ID。
func FillWindow(userID string, dates []string, rows []DailyTotals) []DailyTotals {
	byDate := make(map[string]DailyTotals, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	filled := make([]DailyTotals, len(dates))
	for i, d := range dates {
		if r, ok := byDate[d]; ok {
			filled[i] = r
			continue
		}
		filled[i] = DailyTotals{UserID: userID, Date: d}
	}
	return filled
}
