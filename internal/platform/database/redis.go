package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// OpenRedis 初始化与Redis数据库的连接。
// 未配置地址时返回 (nil, nil)，调用方据此退回到进程内实现。
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到Redis: %w", err)
	}
	return rdb, nil
}
