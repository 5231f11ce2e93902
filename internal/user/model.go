package user

import "time"

// User 是一个登录账号。所有餐食、汇总和食谱都通过 ID 归属到一个用户。
type User struct {
	// ID 是 UUID v7
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// Email 统一保存为小写
	Email string `gorm:"uniqueIndex;not null;type:varchar(255)" json:"email"`

	Name string `gorm:"type:varchar(255)" json:"name"`

	// PasswordHash 是 bcrypt 哈希，永远不会序列化到响应中
	PasswordHash string `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
