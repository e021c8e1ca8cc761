package services

import (
	"context"
	"fmt"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/pkg/cache"
	"farmhub/pkg/config"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionService 订阅状态机与套餐限额
type SubscriptionService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
	audit *AuditService
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService() *SubscriptionService {
	return &SubscriptionService{
		db:    database.GetDB(),
		cache: database.GetCache(),
		log:   logger.GetLogger(),
		audit: NewAuditService(),
	}
}

// 计费事件常量，由外部计费网关回调驱动
const (
	BillingEventRenewalSucceeded = "renewal_succeeded"
	BillingEventRenewalFailed    = "renewal_failed"
	BillingEventTrialElapsed     = "trial_elapsed"
	BillingEventCancelled        = "cancelled"
)

// 计费事件到目标状态的映射
var billingEventTargets = map[string]string{
	BillingEventRenewalSucceeded: models.SubStatusActive,
	BillingEventRenewalFailed:    models.SubStatusPastDue,
	BillingEventTrialElapsed:     models.SubStatusExpired,
	BillingEventCancelled:        models.SubStatusCancelled,
}

// PlanLimits 套餐限额查询，等级的纯函数，与订阅状态无关
// 排除在外的业务CRUD层在创建记录前必须先查这里
func PlanLimits(plan string) models.PlanLimits {
	switch plan {
	case models.PlanProfessional:
		return models.PlanLimits{
			Plan:       plan,
			MaxAnimals: 100,
			MaxUsers:   10,
			Features:   []string{"animals", "health", "breeding", "feed", "medicines", "custom_fields", "reports"},
		}
	case models.PlanFarm:
		return models.PlanLimits{
			Plan:       plan,
			MaxAnimals: 500,
			MaxUsers:   25,
			Features:   []string{"animals", "health", "breeding", "feed", "medicines", "custom_fields", "reports", "api_access"},
		}
	case models.PlanEnterprise:
		return models.PlanLimits{
			Plan:       plan,
			MaxAnimals: -1,
			MaxUsers:   -1,
			Features:   []string{"animals", "health", "breeding", "feed", "medicines", "custom_fields", "reports", "api_access", "priority_support"},
		}
	default:
		return models.PlanLimits{
			Plan:       models.PlanFree,
			MaxAnimals: 10,
			MaxUsers:   2,
			Features:   []string{"animals", "health"},
		}
	}
}

// NewTrialSubscription 构造开通时的默认订阅：trial状态，14天试用、30天续费周期
func NewTrialSubscription(tenantID, plan string, now time.Time) *models.Subscription {
	cfg := config.GetConfig()
	if !models.IsValidPlan(plan) {
		plan = models.PlanFree
	}
	trialEndsAt := now.AddDate(0, 0, cfg.Provision.TrialDays)
	renewsAt := now.AddDate(0, 0, cfg.Provision.RenewalDays)
	return &models.Subscription{
		TenantID:    tenantID,
		Plan:        plan,
		Status:      models.SubStatusTrial,
		TrialEndsAt: &trialEndsAt,
		RenewsAt:    &renewsAt,
		Currency:    models.DefaultCurrency,
	}
}

// GetByTenantID 读取租户订阅，经过旁路缓存
func (s *SubscriptionService) GetByTenantID(ctx context.Context, tenantID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.cache.GetOrLoad(ctx, cache.TenantSubscriptionKey(tenantID), &sub, func() (interface{}, error) {
		return s.loadByTenantID(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// loadByTenantID 直接读库
func (s *SubscriptionService) loadByTenantID(ctx context.Context, tenantID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&sub).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "订阅不存在")
	}
	return &sub, nil
}

// GetLimits 读取租户当前套餐限额，经过旁路缓存
func (s *SubscriptionService) GetLimits(ctx context.Context, tenantID string) (*models.PlanLimits, error) {
	var limits models.PlanLimits
	err := s.cache.GetOrLoad(ctx, cache.TenantLimitsKey(tenantID), &limits, func() (interface{}, error) {
		sub, err := s.loadByTenantID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		l := PlanLimits(sub.Plan)
		return &l, nil
	})
	if err != nil {
		return nil, err
	}
	return &limits, nil
}

// ApplyBillingEvent 应用计费事件，驱动订阅状态流转
// 写库成功后、返回调用方之前完成缓存失效，保证写后读一致
func (s *SubscriptionService) ApplyBillingEvent(ctx context.Context, tenantID, event, actorID string) (*models.Subscription, error) {
	target, ok := billingEventTargets[event]
	if !ok {
		return nil, apperrors.NewInvalidParam(fmt.Sprintf("未知的计费事件: %s", event))
	}

	sub, err := s.loadByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !sub.CanTransitionTo(target) {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("订阅状态不允许从 %s 流转到 %s", sub.Status, target))
	}

	previous := sub.Status
	sub.Status = target
	if event == BillingEventRenewalSucceeded {
		renewsAt := time.Now().AddDate(0, 0, config.GetConfig().Provision.RenewalDays)
		sub.RenewsAt = &renewsAt
	}

	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, apperrors.FromDB(err, "订阅不存在")
	}

	// 写后读一致：先失效缓存再返回
	s.cache.Invalidate(ctx, cache.TenantSubscriptionKey(tenantID), cache.TenantLimitsKey(tenantID))

	s.audit.Record(AuditEntry{
		TenantID:     &sub.TenantID,
		ActorID:      actorID,
		Action:       models.AuditActionSubscriptionEvent,
		ResourceType: "subscription",
		ResourceID:   sub.TenantID,
		Detail: map[string]interface{}{
			"event": event,
			"from":  previous,
			"to":    target,
		},
	})

	return sub, nil
}

// ExpireElapsedTrials 把试用期已结束且未付费的订阅置为expired
// 由定时任务每小时调用一次
func (s *SubscriptionService) ExpireElapsedTrials(ctx context.Context) (int, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?", models.SubStatusTrial, time.Now()).
		Find(&subs).Error
	if err != nil {
		return 0, apperrors.FromDB(err, "订阅不存在")
	}

	expired := 0
	for i := range subs {
		sub := &subs[i]
		// 条件更新：读取和写入之间订阅可能已被续费事件推进，
		// 只有仍处于trial的行才允许置为expired
		res := s.db.WithContext(ctx).Model(&models.Subscription{}).
			Where("id = ? AND status = ?", sub.ID, models.SubStatusTrial).
			Update("status", models.SubStatusExpired)
		if res.Error != nil {
			s.log.Errorf("试用过期处理失败: tenant=%s err=%v", sub.TenantID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		s.cache.Invalidate(ctx, cache.TenantSubscriptionKey(sub.TenantID), cache.TenantLimitsKey(sub.TenantID))
		s.audit.Record(AuditEntry{
			TenantID:     &sub.TenantID,
			ActorID:      "system",
			Action:       models.AuditActionTrialExpired,
			ResourceType: "subscription",
			ResourceID:   sub.TenantID,
			Detail:       map[string]interface{}{"trial_ends_at": sub.TrialEndsAt},
		})
		expired++
	}
	return expired, nil
}

// Upsert 按租户ID做幂等写入，迁移工具复用
func (s *SubscriptionService) Upsert(tx *gorm.DB, sub *models.Subscription) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan", "status", "gateway", "renews_at", "trial_ends_at", "amount_minor", "currency", "updated_at",
		}),
	}).Create(sub).Error
	return apperrors.FromDB(err, "订阅不存在")
}
