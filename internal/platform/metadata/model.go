package metadata

import "time"

// Metadata 是系统级的键值对，例如上次对账的时间
type Metadata struct {
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Metadata) TableName() string {
	return "metadata"
}
