package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 持久化一个新用户，邮箱已被注册时返回校验错误
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("无法生成UUID v7: %w", err)
		}
		u.ID = id.String()
	}
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Validation("Email is already registered")
	}
	if err != nil {
		return fmt.Errorf("无法创建用户: %w", err)
	}
	return nil
}

// GetByEmail 按邮箱查找用户
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("无法查询用户: %w", err)
	}
	return &u, nil
}

// GetByID 按ID查找用户
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("无法查询用户: %w", err)
	}
	return &u, nil
}
