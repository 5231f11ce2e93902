package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/logger"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/startup"
	"github.com/SlpAus/macro-tracker-backend/internal/totals"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/SlpAus/macro-tracker-backend/pkg/token"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openMigratedDB 打开数据库并执行迁移，供所有子命令使用
func openMigratedDB(ctx context.Context) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	if err := startup.Migrate(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

func newCalendar() (*calendar.Calendar, error) {
	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, err
	}
	return calendar.New(loc), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openMigratedDB(cmd.Context())
	if err != nil {
		return err
	}
	return database.Close(db)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openMigratedDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db)

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	// 只写入用户，不需要会话存储
	svc := user.NewService(user.NewRepository(db), issuer, user.NewMemorySessionStore())
	u, err := svc.Register(ctx, userEmail, userPassword, userName)
	if err != nil {
		return err
	}
	slog.Info("用户已创建", "id", u.ID, "email", u.Email)
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Email, u.ID)
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	days := reconcileDays
	if days == 0 {
		days = cfg.Reconcile.WindowDays
	}
	if days <= 0 {
		return errors.New("--days 必须为正数")
	}

	db, err := openMigratedDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db)

	cal, err := newCalendar()
	if err != nil {
		return err
	}
	meals := meal.NewRepository(db)
	reconciler := totals.NewReconciler(db, totals.NewAggregator(db, meals), meals, cal)

	report, err := reconciler.ReconcileAll(ctx, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d users, %d days, %d corrected\n",
		report.Users, report.Days, report.Corrected)
	return nil
}
