package totals

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/macro-tracker-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileAllCorrectsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewReconciler(f.db, f.agg, f.meals, f.cal)

	d := f.cal.DaysAgo(1)
	f.add(t, "U", d, nutrition.Macros{Calories: 100, Protein: 10})
	f.add(t, "V", f.cal.Today(), nutrition.Macros{Calories: 20})

	// 模拟汇总被外部改坏
	require.NoError(t, f.db.Model(&DailyTotals{}).
		Where("user_id = ? AND date = ?", "U", d).
		Update("total_calories", 7).Error)
	// 一条没有任何餐食的孤立汇总
	require.NoError(t, f.db.Create(&DailyTotals{ID: "orphan", UserID: "U", Date: f.cal.DaysAgo(3), TotalCalories: 55}).Error)

	report, err := r.ReconcileAll(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 3, report.Days)
	assert.Equal(t, 2, report.Corrected)

	assert.Equal(t, 100.0, f.totals(t, "U", d).Calories)
	assert.True(t, f.totals(t, "U", f.cal.DaysAgo(3)) == nutrition.Macros{})

	at, err := metadata.GetTime(ctx, f.db, metadata.LastReconcileAtKey)
	require.NoError(t, err)
	assert.True(t, at.Equal(today))
	corrected, err := metadata.GetInt(ctx, f.db, metadata.LastReconcileCorrectedKey)
	require.NoError(t, err)
	assert.EqualValues(t, 2, corrected)

	// 第二次运行不再有修正
	report, err = r.ReconcileAll(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Corrected)
}

func TestReconcileUserRejectsEmptyWindow(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(f.db, f.agg, f.meals, f.cal)
	_, _, err := r.ReconcileUser(context.Background(), "U", 0)
	assert.Error(t, err)
}

func TestRunSchedulerStopsOnShutdown(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(f.db, f.agg, f.meals, f.cal)

	mgr := lifecycle.NewManager("test")
	handle, err := mgr.NewServiceHandle("reconciler")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r.RunScheduler(handle, time.Hour, 7)
		close(done)
	}()

	mgr.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("调度器没有在停机后退出")
	}
	assert.Empty(t, mgr.WaitWithTimeout(time.Second))
}
