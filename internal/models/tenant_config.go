package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// TenantConfig 租户自定义字段配置，与租户1:1
// 字段模式由租户管理员定义，写入时校验字段类型的封闭集合
type TenantConfig struct {
	BaseModel
	TenantID string         `json:"tenant_id" gorm:"uniqueIndex;not null;size:64"`
	Fields   datatypes.JSON `json:"fields" gorm:"type:jsonb;default:'[]'"` // []FieldDefinition

	// 关联
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (c *TenantConfig) TableName() string {
	return "tenant_configs"
}

// 自定义字段类型的封闭集合
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeDropdown = "dropdown"
)

// FieldDefinition 单个自定义字段定义
type FieldDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"` // 仅 dropdown 使用
}

// Validate 校验单个字段定义
func (f *FieldDefinition) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("字段ID不能为空")
	}
	if f.Name == "" {
		return fmt.Errorf("字段名称不能为空")
	}
	switch f.Type {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate:
		if len(f.Options) > 0 {
			return fmt.Errorf("字段 %s: 只有下拉类型允许配置选项", f.Name)
		}
	case FieldTypeDropdown:
		if len(f.Options) == 0 {
			return fmt.Errorf("字段 %s: 下拉类型至少需要一个选项", f.Name)
		}
	default:
		return fmt.Errorf("字段 %s: 不支持的类型 %s", f.Name, f.Type)
	}
	return nil
}

// ValidateFieldSchema 校验整个字段模式，字段ID不允许重复
func ValidateFieldSchema(fields []FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		if err := fields[i].Validate(); err != nil {
			return err
		}
		if seen[fields[i].ID] {
			return fmt.Errorf("字段ID重复: %s", fields[i].ID)
		}
		seen[fields[i].ID] = true
	}
	return nil
}
