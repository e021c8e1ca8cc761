package services

import (
	"context"
	"encoding/json"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/pkg/cache"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfigService 租户配置：品牌/区域设置加自定义字段模式的统一读取视图
type ConfigService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
	audit *AuditService
}

// NewConfigService 创建配置服务
func NewConfigService() *ConfigService {
	return &ConfigService{
		db:    database.GetDB(),
		cache: database.GetCache(),
		log:   logger.GetLogger(),
		audit: NewAuditService(),
	}
}

// TenantConfigView 业务CRUD层读取的租户配置视图
type TenantConfigView struct {
	TenantID       string                   `json:"tenant_id"`
	Name           string                   `json:"name"`
	Slug           string                   `json:"slug"`
	LogoURL        string                   `json:"logo_url"`
	PrimaryColor   string                   `json:"primary_color"`
	Locale         string                   `json:"locale"`
	Currency       string                   `json:"currency"`
	Timezone       string                   `json:"timezone"`
	EnabledModules []string                 `json:"enabled_modules"`
	CustomFields   []models.FieldDefinition `json:"custom_fields"`
}

// GetByTenantID 读取租户配置视图，经过旁路缓存
func (s *ConfigService) GetByTenantID(ctx context.Context, tenantID string) (*TenantConfigView, error) {
	var view TenantConfigView
	err := s.cache.GetOrLoad(ctx, cache.TenantConfigKey(tenantID), &view, func() (interface{}, error) {
		return s.loadView(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// loadView 直接读库组装视图
func (s *ConfigService) loadView(ctx context.Context, tenantID string) (*TenantConfigView, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户不存在")
	}

	var cfg models.TenantConfig
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&cfg).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户配置不存在")
	}

	view := &TenantConfigView{
		TenantID:     tenant.ID,
		Name:         tenant.Name,
		Slug:         tenant.Slug,
		LogoURL:      tenant.LogoURL,
		PrimaryColor: tenant.PrimaryColor,
		Locale:       tenant.Locale,
		Currency:     tenant.Currency,
		Timezone:     tenant.Timezone,
	}
	if len(tenant.EnabledModules) > 0 {
		if err := json.Unmarshal(tenant.EnabledModules, &view.EnabledModules); err != nil {
			s.log.Warnf("租户启用模块解码失败: tenant=%s err=%v", tenantID, err)
		}
	}
	view.CustomFields = []models.FieldDefinition{}
	if len(cfg.Fields) > 0 {
		if err := json.Unmarshal(cfg.Fields, &view.CustomFields); err != nil {
			s.log.Warnf("自定义字段模式解码失败: tenant=%s err=%v", tenantID, err)
		}
	}
	return view, nil
}

// UpdateSchema 更新自定义字段模式
// 写入前按封闭类型集合校验；写库成功后、返回前完成缓存失效
func (s *ConfigService) UpdateSchema(ctx context.Context, tenantID, actorID string, fields []models.FieldDefinition) (*models.TenantConfig, error) {
	if err := models.ValidateFieldSchema(fields); err != nil {
		return nil, apperrors.NewInvalidParam(err.Error())
	}

	var cfg models.TenantConfig
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&cfg).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户配置不存在")
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.NewInvalidParam("自定义字段模式序列化失败")
	}
	cfg.Fields = datatypes.JSON(data)

	if err := s.db.WithContext(ctx).Save(&cfg).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户配置不存在")
	}

	s.cache.Invalidate(ctx, cache.TenantConfigKey(tenantID))

	s.audit.Record(AuditEntry{
		TenantID:     &tenantID,
		ActorID:      actorID,
		Action:       models.AuditActionConfigUpdate,
		ResourceType: "tenant_config",
		ResourceID:   tenantID,
		Detail:       map[string]interface{}{"field_count": len(fields)},
	})

	return &cfg, nil
}

// NewDefaultConfig 开通时的空字段模式
func NewDefaultConfig(tenantID string) *models.TenantConfig {
	return &models.TenantConfig{
		TenantID: tenantID,
		Fields:   datatypes.JSON("[]"),
	}
}

// Upsert 按租户ID做幂等写入，迁移工具复用
func (s *ConfigService) Upsert(tx *gorm.DB, cfg *models.TenantConfig) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
	}).Create(cfg).Error
	return apperrors.FromDB(err, "租户配置不存在")
}
