package totals

import (
	"context"
	"testing"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecentTotalsOmitsMissingDays(t *testing.T) {
	f := newFixture(t)
	history := NewHistory(f.db, f.cal)

	d2 := f.cal.DaysAgo(2)
	d5 := f.cal.DaysAgo(5)
	f.add(t, "U", d5, nutrition.Macros{Calories: 500})
	f.add(t, "U", d2, nutrition.Macros{Calories: 200})
	// 窗口外和其他用户的数据不应出现
	f.add(t, "U", f.cal.DaysAgo(7), nutrition.Macros{Calories: 1})
	f.add(t, "V", d2, nutrition.Macros{Calories: 9})

	rows, err := history.ListRecentTotals(context.Background(), "U", 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, d2, rows[0].Date)
	assert.Equal(t, 200.0, rows[0].TotalCalories)
	assert.Equal(t, d5, rows[1].Date)
	assert.Equal(t, 500.0, rows[1].TotalCalories)
}

func TestListRecentTotalsEmpty(t *testing.T) {
	f := newFixture(t)
	rows, err := NewHistory(f.db, f.cal).ListRecentTotals(context.Background(), "U", 7)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFillWindow(t *testing.T) {
	dates := []string{"2025-06-15", "2025-06-14", "2025-06-13"}
	rows := []DailyTotals{{ID: "x", UserID: "U", Date: "2025-06-14", TotalCalories: 42}}

	filled := FillWindow("U", dates, rows)
	require.Len(t, filled, 3)
	assert.Equal(t, "2025-06-15", filled[0].Date)
	assert.True(t, filled[0].IsEmpty())
	assert.Empty(t, filled[0].ID)
	assert.Equal(t, 42.0, filled[1].TotalCalories)
	assert.Equal(t, "2025-06-13", filled[2].Date)
}
