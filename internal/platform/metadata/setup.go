package metadata

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// MigrateDB 负责迁移metadata表
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	slog.Info("Metadata数据库表迁移成功")
	return nil
}
