package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant 租户模型 - 贫血模型，只包含数据结构
// 主键为外部身份提供方下发的稳定ID，创建后不可变更
type Tenant struct {
	ID             string         `json:"id" gorm:"primaryKey;size:64"`
	Slug           string         `json:"slug" gorm:"uniqueIndex;not null;size:80"` // 人类可读的唯一标识
	Name           string         `json:"name" gorm:"not null;size:200"`            // 农场显示名称
	LogoURL        string         `json:"logo_url" gorm:"size:500"`                 // 对象存储返回的引用地址
	PrimaryColor   string         `json:"primary_color" gorm:"size:20"`
	Locale         string         `json:"locale" gorm:"size:10;default:'en'"`
	Currency       string         `json:"currency" gorm:"size:10;default:'USD'"`
	Timezone       string         `json:"timezone" gorm:"size:50;default:'UTC'"`
	EnabledModules datatypes.JSON `json:"enabled_modules" gorm:"type:jsonb"` // 启用的业务模块列表
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"` // 只做软删除
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 默认启用的业务模块
var DefaultEnabledModules = []string{"animals", "health", "breeding", "feed", "medicines"}

// 品牌默认值
const (
	DefaultPrimaryColor = "#2F855A"
	DefaultLocale       = "en"
	DefaultCurrency     = "USD"
	DefaultTimezone     = "UTC"
)
