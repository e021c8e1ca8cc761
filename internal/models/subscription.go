package models

import (
	"time"
)

// Subscription 订阅模型，与租户严格1:1
type Subscription struct {
	BaseModel
	TenantID    string     `json:"tenant_id" gorm:"uniqueIndex;not null;size:64"`
	Plan        string     `json:"plan" gorm:"not null;size:20;default:'free'"`
	Status      string     `json:"status" gorm:"not null;size:20;default:'trial'"`
	Gateway     string     `json:"gateway" gorm:"size:50"` // 计费网关标识，仅记录
	RenewsAt    *time.Time `json:"renews_at"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
	AmountMinor int64      `json:"amount_minor"` // 金额，最小货币单位
	Currency    string     `json:"currency" gorm:"size:10;default:'USD'"`

	// 关联
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (s *Subscription) TableName() string {
	return "subscriptions"
}

// 套餐等级常量
const (
	PlanFree         = "free"
	PlanProfessional = "professional"
	PlanFarm         = "farm"
	PlanEnterprise   = "enterprise"
)

// 订阅状态常量
const (
	SubStatusTrial           = "trial"
	SubStatusActive          = "active"
	SubStatusExpired         = "expired"
	SubStatusCancelled       = "cancelled"
	SubStatusPastDue         = "past_due"
	SubStatusPendingApproval = "pending_approval"
)

// IsValidPlan 检查套餐等级是否有效
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanProfessional, PlanFarm, PlanEnterprise:
		return true
	default:
		return false
	}
}

// IsTerminal 订阅是否处于终态（取消后不再流转）
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubStatusCancelled
}

// 订阅状态流转表
// cancelled 为唯一终态；expired/past_due 在续费成功后可以恢复
var subscriptionTransitions = map[string][]string{
	SubStatusTrial:           {SubStatusActive, SubStatusExpired, SubStatusPastDue, SubStatusCancelled},
	SubStatusActive:          {SubStatusPastDue, SubStatusExpired, SubStatusCancelled},
	SubStatusPastDue:         {SubStatusActive, SubStatusExpired, SubStatusCancelled},
	SubStatusExpired:         {SubStatusActive, SubStatusCancelled},
	SubStatusPendingApproval: {SubStatusTrial, SubStatusActive, SubStatusCancelled},
	SubStatusCancelled:       {},
}

// CanTransitionTo 检查订阅状态能否流转到目标状态
func (s *Subscription) CanTransitionTo(target string) bool {
	for _, allowed := range subscriptionTransitions[s.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TrialElapsed 试用期是否已结束
func (s *Subscription) TrialElapsed(now time.Time) bool {
	return s.Status == SubStatusTrial && s.TrialEndsAt != nil && now.After(*s.TrialEndsAt)
}

// PlanLimits 套餐限额，容量由等级决定、与订阅状态无关
type PlanLimits struct {
	Plan       string   `json:"plan"`
	MaxAnimals int      `json:"max_animals"` // -1 表示不限
	MaxUsers   int      `json:"max_users"`
	Features   []string `json:"features"`
}
