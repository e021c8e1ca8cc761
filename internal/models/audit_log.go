package models

import (
	"gorm.io/datatypes"
)

// AuditLog 审计日志，只追加，应用侧不修改不删除
type AuditLog struct {
	BaseModel
	TenantID     *string        `json:"tenant_id" gorm:"size:64;index"` // 平台级事件为空
	ActorID      string         `json:"actor_id" gorm:"size:64"`
	Action       string         `json:"action" gorm:"not null;size:50;index"`
	ResourceType string         `json:"resource_type" gorm:"size:50"`
	ResourceID   string         `json:"resource_id" gorm:"size:80"`
	Detail       datatypes.JSON `json:"detail" gorm:"type:jsonb"`
	RequestID    string         `json:"request_id" gorm:"size:64"`
	ClientIP     string         `json:"client_ip" gorm:"size:50"`
}

// TableName 表名
func (l *AuditLog) TableName() string {
	return "audit_logs"
}

// 审计动作常量
const (
	AuditActionApplicationSubmit     = "application.submit"
	AuditActionApplicationTransition = "application.transition"
	AuditActionTenantProvision       = "tenant.provision"
	AuditActionTenantUpdate          = "tenant.update"
	AuditActionTenantDelete          = "tenant.delete"
	AuditActionConfigUpdate          = "config.update"
	AuditActionSubscriptionEvent     = "subscription.event"
	AuditActionTrialExpired          = "subscription.trial_expired"
	AuditActionMigrationRun          = "migration.run"
)
