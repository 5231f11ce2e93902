package recipe

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移食谱表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Recipe{}); err != nil {
		return fmt.Errorf("无法迁移recipe表: %w", err)
	}
	slog.Info("Recipe数据库表迁移成功")
	return nil
}
