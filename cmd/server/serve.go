package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SlpAus/macro-tracker-backend/api"
	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/health"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/logger"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metrics"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/ratelimit"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/shutdown"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/validation"
	"github.com/SlpAus/macro-tracker-backend/internal/recipe"
	"github.com/SlpAus/macro-tracker-backend/internal/totals"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/SlpAus/macro-tracker-backend/pkg/lifecycle"
	"github.com/SlpAus/macro-tracker-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	gin.SetMode(cfg.Server.Mode)
	validation.Register()

	// 1. 存储
	db, err := openMigratedDB(ctx)
	if err != nil {
		return err
	}
	rdb, err := database.OpenRedis(ctx, cfg.Database.Redis)
	if err != nil {
		_ = database.Close(db)
		return err
	}
	if rdb == nil {
		slog.Warn("未配置Redis，会话吊销和限流只在本进程内生效")
	}

	// 2. 生命周期管理器与停机协调器
	gracefulManager := lifecycle.NewManager("graceful")
	forcefulManager := lifecycle.NewManager("forceful")
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.OnClose("database", func() error { return database.Close(db) })
	if rdb != nil {
		coordinator.OnClose("redis", rdb.Close)
	}

	// 3. 业务组件
	cal, err := newCalendar()
	if err != nil {
		coordinator.Shutdown(nil)
		return err
	}
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		coordinator.Shutdown(nil)
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("未配置 auth.jwtSecret，使用随机密钥，重启后所有会话失效")
	}

	var sessions user.SessionStore = user.NewMemorySessionStore()
	if rdb != nil {
		sessions = user.NewRedisSessionStore(rdb)
	}
	users := user.NewService(user.NewRepository(db), issuer, sessions)

	var extractor nutrition.Extractor
	if openai, err := nutrition.NewOpenAIExtractor(cfg.Nutrition); err != nil {
		if !errors.Is(err, nutrition.ErrNotConfigured) {
			coordinator.Shutdown(nil)
			return err
		}
		slog.Warn("未配置 nutrition.apiKey，餐食解析不可用")
	} else {
		extractor = openai
	}

	mealRepo := meal.NewRepository(db)
	aggregator := totals.NewAggregator(db, mealRepo)
	meals := meal.NewService(mealRepo, aggregator.ForMeals(), extractor, cal).
		WithLimiter(ratelimit.New(rdb, "parse-meal", cfg.Nutrition.RateLimit.Requests, cfg.Nutrition.RateLimit.Window))
	recipes := recipe.NewService(recipe.NewRepository(db), meals)
	checker := health.NewChecker(db, rdb)

	// 4. 后台服务
	if err := gracefulManager.Go("health-checker", checker.Run); err != nil {
		coordinator.Shutdown(nil)
		return err
	}
	if cfg.Reconcile.Enabled {
		reconciler := totals.NewReconciler(db, aggregator, mealRepo, cal)
		err := gracefulManager.Go("totals-reconciler", func(h *lifecycle.Handle) {
			reconciler.RunScheduler(h, cfg.Reconcile.Interval, cfg.Reconcile.WindowDays)
		})
		if err != nil {
			coordinator.Shutdown(nil)
			return err
		}
	}

	// 5. 路由
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, api.Deps{
		Users:      users,
		CookieName: cfg.Auth.CookieName,
		Auth:       user.NewHandler(users, cfg.Auth.CookieName, cfg.Server.Mode == gin.ReleaseMode),
		Meals:      meal.NewHandler(meals),
		Recipes:    recipe.NewHandler(recipes),
		History:    totals.NewHandler(totals.NewHistory(db, cal), cfg.History.WindowDays),
		Health:     checker,
	})

	// 6. 启动服务器
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("服务器已准备就绪，开始监听", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 7. 阻塞直到停机完成
	if err := coordinator.ListenForSignalsAndShutdown(srv, serveErr); err != nil {
		return fmt.Errorf("HTTP服务器启动失败: %w", err)
	}
	return nil
}
