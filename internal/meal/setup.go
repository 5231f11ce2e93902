package meal

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// MigrateDB 负责自动迁移餐食表结构
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Meal{}); err != nil {
		return fmt.Errorf("无法迁移meal表: %w", err)
	}
	slog.Info("Meal数据库表迁移成功")
	return nil
}
