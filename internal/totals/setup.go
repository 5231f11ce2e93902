package totals

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// MigrateDB 负责迁移每日汇总表，唯一索引 (user_id, date) 随表一起创建
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&DailyTotals{}); err != nil {
		return fmt.Errorf("无法迁移daily_totals表: %w", err)
	}
	slog.Info("DailyTotals数据库表迁移成功")
	return nil
}
