package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/macro-tracker-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	checkInterval = 15 * time.Second
	pingTimeout   = 2 * time.Second
)

// Checker 定期探测数据库和Redis，并为 /api/health 提供最近的结果
type Checker struct {
	db     *gorm.DB
	rdb    *redis.Client // 未配置Redis时为 nil
	status statusManager
}

func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	return &Checker{db: db, rdb: rdb}
}

func (c *Checker) pingDB(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (c *Checker) pingRedis(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// PerformCheck 执行一次完整的健康检查
func (c *Checker) PerformCheck(ctx context.Context) Status {
	return c.status.assess(c.pingDB(ctx), c.pingRedis(ctx), c.rdb != nil, time.Now())
}

// Current 返回最近一次检查的结果
func (c *Checker) Current() Status {
	return c.status.get()
}

// Run 启动周期性检查，直到生命周期句柄被取消
func (c *Checker) Run(handle *lifecycle.Handle) {
	defer handle.Close()
	slog.Info("健康检查器已启动", "interval", checkInterval)

	c.PerformCheck(handle.Ctx())
	for {
		if err := handle.Sleep(checkInterval); err != nil {
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}

// Handler 处理 GET /api/health。每次请求都会重新探测，数据库不可用时返回503。
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s := c.PerformCheck(ctx.Request.Context())

		body := gin.H{
			"status":    s.State.String(),
			"database":  componentStatus(s.Database, true),
			"redis":     componentStatus(s.Redis, s.RedisUsed),
			"checkedAt": s.CheckedAt,
		}
		if s.Database == nil {
			if at, err := metadata.GetTime(ctx.Request.Context(), c.db, metadata.LastReconcileAtKey); err == nil && !at.IsZero() {
				body["lastReconcileAt"] = at
			}
		}

		code := http.StatusOK
		if s.State == StateDown {
			code = http.StatusServiceUnavailable
		}
		ctx.JSON(code, body)
	}
}

func componentStatus(err error, used bool) string {
	switch {
	case !used:
		return "disabled"
	case err != nil:
		return "unavailable"
	default:
		return "ok"
	}
}
