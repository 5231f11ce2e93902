package totals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metrics"
	"github.com/SlpAus/macro-tracker-backend/pkg/lifecycle"
	"gorm.io/gorm"
)

// Report 汇总一次对账的结果
type Report struct {
	Users     int
	Days      int
	Corrected int
}

// Reconciler 是每日汇总的恢复路径：重算窗口内的每一天，修正任何偏差。
// 正常写入路径已经保证一致，这里处理的是外部改动或历史遗留的数据。
type Reconciler struct {
	db    *gorm.DB
	agg   *Aggregator
	meals *meal.Repository
	cal   *calendar.Calendar

	mu sync.Mutex // 同一时间只跑一次对账
}

func NewReconciler(db *gorm.DB, agg *Aggregator, meals *meal.Repository, cal *calendar.Calendar) *Reconciler {
	return &Reconciler{db: db, agg: agg, meals: meals, cal: cal}
}

// ReconcileUser 重算用户在窗口内每个有餐食或有汇总行的日期，返回被修正的天数
func (r *Reconciler) ReconcileUser(ctx context.Context, userID string, windowDays int) (days, corrected int, err error) {
	if windowDays <= 0 {
		return 0, 0, fmt.Errorf("无效的对账窗口: %d 天", windowDays)
	}
	from := r.cal.DaysAgo(windowDays - 1)

	mealDates, err := r.meals.ListDatesSince(ctx, userID, from)
	if err != nil {
		return 0, 0, err
	}
	var totalDates []string
	err = r.db.WithContext(ctx).Model(&DailyTotals{}).
		Where("user_id = ? AND date >= ?", userID, from).
		Pluck("date", &totalDates).Error
	if err != nil {
		return 0, 0, fmt.Errorf("无法查询汇总日期: %w", err)
	}

	for _, date := range union(mealDates, totalDates) {
		if err := ctx.Err(); err != nil {
			return days, corrected, err
		}
		changed, err := r.reconcileDay(ctx, userID, date)
		if err != nil {
			return days, corrected, err
		}
		days++
		if changed {
			corrected++
		}
	}
	return days, corrected, nil
}

func (r *Reconciler) reconcileDay(ctx context.Context, userID, date string) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.agg.find(ctx, tx, userID, date)
		if err != nil && !isNotFound(err) {
			return err
		}
		after, err := r.agg.RecomputeTotals(ctx, tx, userID, date)
		if err != nil {
			return err
		}
		changed = before == nil || before.Macros() != after.Macros()
		return nil
	})
	if err != nil {
		return false, err
	}

	metrics.TotalsRecomputed.WithLabelValues("reconcile").Inc()
	if changed {
		metrics.TotalsDriftCorrected.Inc()
		slog.Warn("每日汇总存在偏差，已修正", "user", userID, "date", date)
	}
	return changed, nil
}

// ReconcileAll 对窗口内所有有数据的用户执行对账，并把结果记录到 metadata
func (r *Reconciler) ReconcileAll(ctx context.Context, windowDays int) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report Report
	if windowDays <= 0 {
		return report, fmt.Errorf("无效的对账窗口: %d 天", windowDays)
	}
	from := r.cal.DaysAgo(windowDays - 1)

	mealUsers, err := r.meals.ListUserIDsSince(ctx, from)
	if err != nil {
		return report, err
	}
	var totalUsers []string
	err = r.db.WithContext(ctx).Model(&DailyTotals{}).
		Distinct("user_id").
		Where("date >= ?", from).
		Pluck("user_id", &totalUsers).Error
	if err != nil {
		return report, fmt.Errorf("无法查询汇总用户: %w", err)
	}

	for _, userID := range union(mealUsers, totalUsers) {
		days, corrected, err := r.ReconcileUser(ctx, userID, windowDays)
		report.Days += days
		report.Corrected += corrected
		if err != nil {
			return report, fmt.Errorf("用户 %s 对账失败: %w", userID, err)
		}
		report.Users++
	}

	if err := metadata.SetTime(ctx, r.db, metadata.LastReconcileAtKey, r.cal.Now()); err != nil {
		return report, err
	}
	if err := metadata.SetInt(ctx, r.db, metadata.LastReconcileCorrectedKey, int64(report.Corrected)); err != nil {
		return report, err
	}
	return report, nil
}

// RunScheduler 定期执行对账，直到生命周期句柄被取消
func (r *Reconciler) RunScheduler(handle *lifecycle.Handle, interval time.Duration, windowDays int) {
	defer handle.Close()
	slog.Info("每日汇总对账调度器已启动", "interval", interval, "windowDays", windowDays)

	for {
		// 可中断的休眠，收到停机信号时立即退出
		if err := handle.Sleep(interval); err != nil {
			slog.Info("对账调度器: 休眠被中断，正在关闭")
			return
		}

		start := time.Now()
		report, err := r.ReconcileAll(handle.Ctx(), windowDays)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			slog.Error("对账调度器: 执行对账失败", "error", err)
			continue
		}
		slog.Info("对账调度器: 对账完成",
			"users", report.Users, "days", report.Days, "corrected", report.Corrected,
			"duration", time.Since(start))
	}
}

func union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
