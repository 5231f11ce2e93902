package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- 通用读写 ---

// GetValue 读取一个键的值，键不存在时返回空字符串
func GetValue(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.WithContext(ctx).Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("无法读取元数据 '%s': %w", key, err)
	}
	return meta.Value, nil
}

// SetValue 写入一个键的值，已存在时覆盖
func SetValue(ctx context.Context, db *gorm.DB, key, value string) error {
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
	if err != nil {
		return fmt.Errorf("无法写入元数据 '%s': %w", key, err)
	}
	return nil
}

// --- 类型转换辅助 ---

// GetTime 读取一个时间值，键不存在时返回零值
func GetTime(ctx context.Context, db *gorm.DB, key string) (time.Time, error) {
	valueStr, err := GetValue(ctx, db, key)
	if err != nil || valueStr == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return t, nil
}

// SetTime 以 RFC3339 格式写入一个时间值
func SetTime(ctx context.Context, db *gorm.DB, key string, t time.Time) error {
	return SetValue(ctx, db, key, t.UTC().Format(time.RFC3339))
}

// GetInt 读取一个整数值，键不存在时返回0
func GetInt(ctx context.Context, db *gorm.DB, key string) (int64, error) {
	valueStr, err := GetValue(ctx, db, key)
	if err != nil || valueStr == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return n, nil
}

// SetInt 写入一个整数值
func SetInt(ctx context.Context, db *gorm.DB, key string, n int64) error {
	return SetValue(ctx, db, key, strconv.FormatInt(n, 10))
}
