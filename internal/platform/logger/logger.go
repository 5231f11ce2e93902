package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

// Init 根据配置初始化全局的结构化日志，并返回它
func Init(cfg config.LogConfig) *slog.Logger {
	return InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter 与 Init 相同，但允许指定输出位置
func InitWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// ParseLevel 将配置中的字符串转换为 slog.Level，无法识别时使用 Info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GormLevel 把应用的日志级别映射到GORM的日志级别
func GormLevel(level string) gormlogger.LogLevel {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return gormlogger.Info
	case slog.LevelError:
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

// UserIDKey 与 user 模块写入gin上下文的键保持一致
const UserIDKey = "userID"

// RequestLogger 为每个请求输出一行结构化日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if userID := c.GetString(UserIDKey); userID != "" {
			attrs = append(attrs, "user", userID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			slog.Error("请求处理失败", attrs...)
		case status >= 400:
			slog.Warn("请求被拒绝", attrs...)
		default:
			slog.Info("请求完成", attrs...)
		}
	}
}
