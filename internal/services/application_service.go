package services

import (
	"context"
	"fmt"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/models"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationService 入驻申请工作流引擎
// 状态只能按 pending → payment_uploaded → under_review → approved/rejected
// 单向推进；免费套餐跳过 payment_uploaded；非法流转不落库
type ApplicationService struct {
	db        *gorm.DB
	log       *logrus.Logger
	audit     *AuditService
	provision *ProvisionService
}

// NewApplicationService 创建申请服务
func NewApplicationService() *ApplicationService {
	return &ApplicationService{
		db:        database.GetDB(),
		log:       logger.GetLogger(),
		audit:     NewAuditService(),
		provision: NewProvisionService(),
	}
}

// SubmitApplicationRequest 提交申请请求
// 套餐必须在提交前确定，不接受空值
type SubmitApplicationRequest struct {
	ApplicantEmail string `json:"applicant_email" binding:"required,email"`
	FarmName       string `json:"farm_name" binding:"required,min=2,max=200"`
	ContactName    string `json:"contact_name"`
	ContactPhone   string `json:"contact_phone"`
	RequestedPlan  string `json:"requested_plan" binding:"required"`
}

// Submit 提交入驻申请，初始状态 pending
func (s *ApplicationService) Submit(ctx context.Context, applicantUserID string, req *SubmitApplicationRequest) (*models.FarmApplication, error) {
	if !models.IsValidPlan(req.RequestedPlan) {
		return nil, apperrors.NewInvalidParam(fmt.Sprintf("未知的套餐等级: %s", req.RequestedPlan))
	}

	app := &models.FarmApplication{
		ApplicantUserID: applicantUserID,
		ApplicantEmail:  req.ApplicantEmail,
		FarmName:        req.FarmName,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		RequestedPlan:   req.RequestedPlan,
		Status:          models.AppStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, apperrors.FromDB(err, "申请不存在")
	}

	s.audit.Record(AuditEntry{
		ActorID:      applicantUserID,
		Action:       models.AuditActionApplicationSubmit,
		ResourceType: "farm_application",
		ResourceID:   fmt.Sprintf("%d", app.ID),
		Detail: map[string]interface{}{
			"farm_name": app.FarmName,
			"plan":      app.RequestedPlan,
		},
	})

	return app, nil
}

// GetByID 根据ID获取申请
func (s *ApplicationService) GetByID(ctx context.Context, id uint) (*models.FarmApplication, error) {
	var app models.FarmApplication
	err := s.db.WithContext(ctx).First(&app, id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "申请不存在")
	}
	return &app, nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *ApplicationService) GetWithFiltersAndPage(ctx context.Context, status string, page, pageSize int) ([]*models.FarmApplication, int64, error) {
	var apps []*models.FarmApplication
	var total int64

	query := s.db.WithContext(ctx).Model(&models.FarmApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.FromDB(err, "申请不存在")
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&apps).Error
	if err != nil {
		return nil, 0, apperrors.FromDB(err, "申请不存在")
	}

	return apps, total, nil
}

// AttachPayment 上传付款凭证，pending → payment_uploaded
// 免费套餐不经过该状态，直接拒绝
func (s *ApplicationService) AttachPayment(ctx context.Context, id uint, actorID, slipURL string, amount int64) (*models.FarmApplication, error) {
	err := s.transition(ctx, id, models.AppStatusPaymentUploaded, actorID, func(a *models.FarmApplication) {
		a.PaymentSlipURL = slipURL
		a.PaymentAmount = amount
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// StartReview 进入审核，→ under_review
func (s *ApplicationService) StartReview(ctx context.Context, id uint, reviewerID string) (*models.FarmApplication, error) {
	err := s.transition(ctx, id, models.AppStatusUnderReview, reviewerID, func(a *models.FarmApplication) {
		a.ReviewerUserID = &reviewerID
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Reject 拒绝申请，任何非终态可达
func (s *ApplicationService) Reject(ctx context.Context, id uint, reviewerID, notes string) (*models.FarmApplication, error) {
	now := time.Now()
	err := s.transition(ctx, id, models.AppStatusRejected, reviewerID, func(a *models.FarmApplication) {
		a.ReviewerUserID = &reviewerID
		a.ReviewNotes = notes
		a.RejectedAt = &now
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// transition 通用状态推进：行锁内校验流转表，非法流转不落库
func (s *ApplicationService) transition(ctx context.Context, id uint, target, actorID string, apply func(*models.FarmApplication)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.FarmApplication
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return apperrors.FromDB(err, "申请不存在")
		}

		if !app.CanTransitionTo(target) {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("申请状态不允许从 %s 流转到 %s", app.Status, target))
		}

		previous := app.Status
		app.Status = target
		if apply != nil {
			apply(&app)
		}

		if err := tx.Save(&app).Error; err != nil {
			return apperrors.FromDB(err, "申请不存在")
		}

		s.audit.Record(AuditEntry{
			TenantID:     app.TenantID,
			ActorID:      actorID,
			Action:       models.AuditActionApplicationTransition,
			ResourceType: "farm_application",
			ResourceID:   fmt.Sprintf("%d", app.ID),
			Detail: map[string]interface{}{
				"from": previous,
				"to":   target,
			},
		})

		return nil
	})
}

// Approve 批准申请并同步开通租户
// 申请状态更新和租户开通在同一个事务内：开通失败则申请状态一并回滚，
// 不会出现 approved 却没有租户的状态
func (s *ApplicationService) Approve(ctx context.Context, id uint, reviewerID, notes string) (*models.FarmApplication, *ProvisionResult, error) {
	var result *ProvisionResult
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.FarmApplication
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return apperrors.FromDB(err, "申请不存在")
		}

		if !app.CanTransitionTo(models.AppStatusApproved) {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("申请状态不允许从 %s 流转到 %s", app.Status, models.AppStatusApproved))
		}

		provisioned, err := s.provision.ProvisionTx(tx, &ProvisionInput{
			ApplicantUserID: app.ApplicantUserID,
			FarmName:        app.FarmName,
			Plan:            app.RequestedPlan,
		}, now)
		if err != nil {
			return err
		}
		result = provisioned

		app.Status = models.AppStatusApproved
		app.ReviewerUserID = &reviewerID
		app.ReviewNotes = notes
		app.TenantID = &provisioned.Tenant.ID
		app.FarmID = &provisioned.FarmID
		app.ApprovedAt = &now

		if err := tx.Save(&app).Error; err != nil {
			return apperrors.FromDB(err, "申请不存在")
		}

		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, nil, err
		}
		return nil, nil, apperrors.FromDB(err, "申请不存在")
	}

	// 事务提交后的收尾：缓存失效+预热、审计
	s.provision.Finalize(ctx, result, reviewerID)

	s.audit.Record(AuditEntry{
		TenantID:     &result.Tenant.ID,
		ActorID:      reviewerID,
		Action:       models.AuditActionApplicationTransition,
		ResourceType: "farm_application",
		ResourceID:   fmt.Sprintf("%d", id),
		Detail: map[string]interface{}{
			"from":    models.AppStatusUnderReview,
			"to":      models.AppStatusApproved,
			"farm_id": result.FarmID,
		},
	})

	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return app, result, nil
}

// UpdateReviewNotes 终态后的管理员备注修正
func (s *ApplicationService) UpdateReviewNotes(ctx context.Context, id uint, reviewerID, notes string) (*models.FarmApplication, error) {
	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	app.ReviewNotes = notes
	app.ReviewerUserID = &reviewerID
	if err := s.db.WithContext(ctx).Model(app).Updates(map[string]interface{}{
		"review_notes":     notes,
		"reviewer_user_id": reviewerID,
	}).Error; err != nil {
		return nil, apperrors.FromDB(err, "申请不存在")
	}
	return app, nil
}
