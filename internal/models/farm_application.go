package models

import (
	"time"
)

// FarmApplication 入驻申请，每次开通尝试一条记录
// 状态只能单向前进；approved/rejected 为终态，终态后除管理员备注外不可修改
type FarmApplication struct {
	BaseModel
	ApplicantUserID string     `json:"applicant_user_id" gorm:"not null;size:64;index"` // 外部身份提供方的用户ID
	ApplicantEmail  string     `json:"applicant_email" gorm:"not null;size:200"`
	FarmName        string     `json:"farm_name" gorm:"not null;size:200"`
	ContactName     string     `json:"contact_name" gorm:"size:100"`
	ContactPhone    string     `json:"contact_phone" gorm:"size:50"`
	RequestedPlan   string     `json:"requested_plan" gorm:"not null;size:20"` // 提交时必须已确定，不允许为空
	Status          string     `json:"status" gorm:"not null;size:20;default:'pending';index"`
	PaymentSlipURL  string     `json:"payment_slip_url" gorm:"size:500"` // 对象存储返回的引用地址
	PaymentAmount   int64      `json:"payment_amount"`                   // 最小货币单位
	ReviewerUserID  *string    `json:"reviewer_user_id" gorm:"size:64"`
	ReviewNotes     string     `json:"review_notes" gorm:"size:1000"` // 终态后仍允许管理员补充
	TenantID        *string    `json:"tenant_id" gorm:"size:64"`      // 批准后指向新建租户
	FarmID          *string    `json:"farm_id" gorm:"uniqueIndex;size:30"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectedAt      *time.Time `json:"rejected_at"`
}

// TableName 表名
func (a *FarmApplication) TableName() string {
	return "farm_applications"
}

// 申请状态常量
const (
	AppStatusPending         = "pending"
	AppStatusPaymentUploaded = "payment_uploaded"
	AppStatusUnderReview     = "under_review"
	AppStatusApproved        = "approved"
	AppStatusRejected        = "rejected"
)

// IsTerminal 申请是否处于终态
func (a *FarmApplication) IsTerminal() bool {
	return a.Status == AppStatusApproved || a.Status == AppStatusRejected
}

// RequiresPayment 付费套餐需要上传付款凭证
func (a *FarmApplication) RequiresPayment() bool {
	return a.RequestedPlan != PlanFree
}

// CanTransitionTo 检查申请状态能否流转到目标状态
// 免费套餐允许 pending 直达 under_review，不经过 payment_uploaded
func (a *FarmApplication) CanTransitionTo(target string) bool {
	if a.IsTerminal() {
		return false
	}
	switch a.Status {
	case AppStatusPending:
		if target == AppStatusRejected {
			return true
		}
		if a.RequiresPayment() {
			return target == AppStatusPaymentUploaded
		}
		return target == AppStatusUnderReview
	case AppStatusPaymentUploaded:
		return target == AppStatusUnderReview || target == AppStatusRejected
	case AppStatusUnderReview:
		return target == AppStatusApproved || target == AppStatusRejected
	}
	return false
}
