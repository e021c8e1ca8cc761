package services

import (
	"context"
	"encoding/json"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/pkg/cache"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProvisionService 租户开通
// 租户、订阅、配置三行在一个事务内创建：要么全有，要么全无，
// 不依赖补偿删除
type ProvisionService struct {
	db            *gorm.DB
	cache         *cache.Cache
	log           *logrus.Logger
	audit         *AuditService
	tenantService *TenantService
	configService *ConfigService
	subService    *SubscriptionService
	farmID        *FarmIDService
}

// NewProvisionService 创建开通服务
func NewProvisionService() *ProvisionService {
	return &ProvisionService{
		db:            database.GetDB(),
		cache:         database.GetCache(),
		log:           logger.GetLogger(),
		audit:         NewAuditService(),
		tenantService: NewTenantService(),
		configService: NewConfigService(),
		subService:    NewSubscriptionService(),
		farmID:        NewFarmIDService(),
	}
}

// ProvisionInput 开通输入
type ProvisionInput struct {
	ExternalID      string // 身份提供方下发的租户ID，为空时由平台生成
	ApplicantUserID string
	FarmName        string
	SlugBasis       string // 为空时用FarmName派生
	LogoURL         string
	PrimaryColor    string
	Locale          string
	Currency        string
	Timezone        string
	Plan            string
}

// ProvisionResult 开通结果
type ProvisionResult struct {
	Tenant       *models.Tenant       `json:"tenant"`
	Subscription *models.Subscription `json:"subscription"`
	Config       *models.TenantConfig `json:"config"`
	FarmID       string               `json:"farm_id"`
}

// ProvisionTx 在给定事务内执行开通步骤
// 任一步失败整个事务回滚，调用方不会观察到部分行
func (s *ProvisionService) ProvisionTx(tx *gorm.DB, input *ProvisionInput, now time.Time) (*ProvisionResult, error) {
	// 1. 分配农场编号
	farmID, err := s.farmID.Next(tx, now.Year())
	if err != nil {
		return nil, err
	}

	// 2. 租户行，未设置的品牌字段补默认值
	tenantID := input.ExternalID
	if tenantID == "" {
		tenantID = uuid.NewString()
	}
	slugBasis := input.SlugBasis
	if slugBasis == "" {
		slugBasis = input.FarmName
	}
	slug, err := s.tenantService.EnsureUniqueSlug(tx, slugBasis)
	if err != nil {
		return nil, err
	}

	modules, _ := json.Marshal(models.DefaultEnabledModules)
	tenant := &models.Tenant{
		ID:             tenantID,
		Slug:           slug,
		Name:           input.FarmName,
		LogoURL:        input.LogoURL,
		PrimaryColor:   defaultIfEmpty(input.PrimaryColor, models.DefaultPrimaryColor),
		Locale:         defaultIfEmpty(input.Locale, models.DefaultLocale),
		Currency:       defaultIfEmpty(input.Currency, models.DefaultCurrency),
		Timezone:       defaultIfEmpty(input.Timezone, models.DefaultTimezone),
		EnabledModules: datatypes.JSON(modules),
	}
	if err := tx.Create(tenant).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户不存在")
	}

	// 3. 默认订阅，trial状态
	sub := NewTrialSubscription(tenant.ID, input.Plan, now)
	sub.Currency = tenant.Currency
	if err := tx.Create(sub).Error; err != nil {
		return nil, apperrors.FromDB(err, "订阅不存在")
	}

	// 4. 空自定义字段配置
	cfg := NewDefaultConfig(tenant.ID)
	if err := tx.Create(cfg).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户配置不存在")
	}

	return &ProvisionResult{
		Tenant:       tenant,
		Subscription: sub,
		Config:       cfg,
		FarmID:       farmID,
	}, nil
}

// Provision 独立开通入口，自建事务
func (s *ProvisionService) Provision(ctx context.Context, input *ProvisionInput) (*ProvisionResult, error) {
	var result *ProvisionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.ProvisionTx(tx, input, time.Now())
		return txErr
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.FromDB(err, "租户不存在")
	}

	s.Finalize(ctx, result, input.ApplicantUserID)
	return result, nil
}

// Finalize 事务提交后的收尾：失效并预热缓存，写审计
// 预热走与线上读取相同的GetOrLoad路径，首个真实读取即命中
func (s *ProvisionService) Finalize(ctx context.Context, result *ProvisionResult, actorID string) {
	tenantID := result.Tenant.ID
	s.cache.Invalidate(ctx, cache.TenantKeys(tenantID)...)

	if _, err := s.configService.GetByTenantID(ctx, tenantID); err != nil {
		s.log.Warnf("配置缓存预热失败: tenant=%s err=%v", tenantID, err)
	}
	if _, err := s.subService.GetByTenantID(ctx, tenantID); err != nil {
		s.log.Warnf("订阅缓存预热失败: tenant=%s err=%v", tenantID, err)
	}
	if _, err := s.subService.GetLimits(ctx, tenantID); err != nil {
		s.log.Warnf("限额缓存预热失败: tenant=%s err=%v", tenantID, err)
	}

	s.audit.Record(AuditEntry{
		TenantID:     &result.Tenant.ID,
		ActorID:      actorID,
		Action:       models.AuditActionTenantProvision,
		ResourceType: "tenant",
		ResourceID:   result.Tenant.ID,
		Detail: map[string]interface{}{
			"farm_id": result.FarmID,
			"slug":    result.Tenant.Slug,
			"plan":    result.Subscription.Plan,
		},
	})
}

// defaultIfEmpty 空字符串时取默认值
func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
