// Package dbtest 为各模块的测试提供独立的内存数据库。
package dbtest

import (
	"fmt"
	"testing"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开一个只属于当前测试的SQLite内存库，并迁移给定模型。
func Open(t testing.TB, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: dsn}, logger.Silent)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("迁移测试数据库失败: %v", err)
		}
	}
	return db
}
