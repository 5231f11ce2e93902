package startup

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/macro-tracker-backend/internal/recipe"
	"github.com/SlpAus/macro-tracker-backend/internal/totals"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"gorm.io/gorm"
)

// SchemaVersion 在表结构发生不兼容变化时递增
const SchemaVersion = 1

// Migrate 是表结构迁移的总入口，按依赖顺序迁移每个模块
func Migrate(ctx context.Context, db *gorm.DB) error {
	slog.Info("开始迁移数据库表结构")

	steps := []func(*gorm.DB) error{
		metadata.MigrateDB,
		user.MigrateDB,
		meal.MigrateDB,
		totals.MigrateDB,
		recipe.MigrateDB,
	}
	for _, step := range steps {
		if err := step(db); err != nil {
			return err
		}
	}

	if err := metadata.SetValue(ctx, db, metadata.SchemaVersionKey, strconv.Itoa(SchemaVersion)); err != nil {
		return err
	}
	slog.Info("数据库表结构迁移完成", "schemaVersion", SchemaVersion)
	return nil
}
