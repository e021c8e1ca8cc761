package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/pkg/cache"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LegacyTenantDocument 旧文档库导出的租户聚合文档
// 嵌套结构按旧系统的字段命名
type LegacyTenantDocument struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Branding struct {
		LogoURL      string `json:"logoUrl"`
		PrimaryColor string `json:"primaryColor"`
	} `json:"branding"`
	Settings struct {
		Locale   string   `json:"locale"`
		Currency string   `json:"currency"`
		Timezone string   `json:"timezone"`
		Modules  []string `json:"modules"`
	} `json:"settings"`
	Config struct {
		CustomFields []models.FieldDefinition `json:"customFields"`
	} `json:"config"`
	Subscription struct {
		Plan        string     `json:"plan"`
		Status      string     `json:"status"`
		Gateway     string     `json:"gateway"`
		RenewsAt    *time.Time `json:"renewsAt"`
		TrialEndsAt *time.Time `json:"trialEndsAt"`
		Amount      int64      `json:"amount"`
		Currency    string     `json:"currency"`
	} `json:"subscription"`
}

// LegacySource 旧文档库读取抽象
type LegacySource interface {
	LoadTenants(ctx context.Context) ([]LegacyTenantDocument, error)
}

// FileLegacySource 从JSON导出文件读取旧文档
type FileLegacySource struct {
	Path string
}

// LoadTenants 读取导出文件
func (f *FileLegacySource) LoadTenants(ctx context.Context) ([]LegacyTenantDocument, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("读取旧库导出文件失败: %w", err)
	}
	var docs []LegacyTenantDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("解析旧库导出文件失败: %w", err)
	}
	return docs, nil
}

// MigrationOptions 迁移选项
type MigrationOptions struct {
	DryRun   bool   `json:"dry_run"`
	TenantID string `json:"tenant_id"` // 非空时只迁移单个租户
}

// EntityCounts 单实体的迁移计数
type EntityCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// MigrationReport 迁移结果汇总
type MigrationReport struct {
	DryRun        bool         `json:"dry_run"`
	Tenants       EntityCounts `json:"tenants"`
	Subscriptions EntityCounts `json:"subscriptions"`
	Configs       EntityCounts `json:"configs"`
	Errors        []string     `json:"errors"`
}

// MigrationService 旧文档库到关系库的一次性迁移
// 写入复用各实体服务的幂等Upsert，与线上开通走同一套约束；
// 单个租户失败只记入错误列表，不中断整批
type MigrationService struct {
	db        *gorm.DB
	cache     *cache.Cache
	log       *logrus.Logger
	audit     *AuditService
	tenantSvc *TenantService
	subSvc    *SubscriptionService
	configSvc *ConfigService
}

// NewMigrationService 创建迁移服务
func NewMigrationService() *MigrationService {
	return &MigrationService{
		db:        database.GetDB(),
		cache:     database.GetCache(),
		log:       logger.GetLogger(),
		audit:     NewAuditService(),
		tenantSvc: NewTenantService(),
		subSvc:    NewSubscriptionService(),
		configSvc: NewConfigService(),
	}
}

// Run 执行迁移批次
func (s *MigrationService) Run(ctx context.Context, source LegacySource, opts MigrationOptions) (*MigrationReport, error) {
	docs, err := source.LoadTenants(ctx)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{DryRun: opts.DryRun, Errors: []string{}}

	for i := range docs {
		doc := &docs[i]
		if opts.TenantID != "" && doc.ID != opts.TenantID {
			continue
		}
		if err := s.migrateOne(ctx, doc, opts.DryRun, report); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("tenant %s: %v", doc.ID, err))
			s.log.Errorf("租户迁移失败: tenant=%s err=%v", doc.ID, err)
		}
	}

	s.audit.Record(AuditEntry{
		ActorID:      "system",
		Action:       models.AuditActionMigrationRun,
		ResourceType: "migration",
		Detail: map[string]interface{}{
			"dry_run":       opts.DryRun,
			"tenant_filter": opts.TenantID,
			"tenants":       report.Tenants,
			"subscriptions": report.Subscriptions,
			"configs":       report.Configs,
			"error_count":   len(report.Errors),
		},
	})

	return report, nil
}

// migrateOne 迁移单个租户文档
func (s *MigrationService) migrateOne(ctx context.Context, doc *LegacyTenantDocument, dryRun bool, report *MigrationReport) error {
	if doc.ID == "" {
		return fmt.Errorf("文档缺少租户ID")
	}

	tenant, sub, cfg, err := MapLegacyDocument(doc)
	if err != nil {
		return err
	}

	// 统计新增/更新：按自然键探测既有行
	tenantExists, err := s.exists(ctx, &models.Tenant{}, "id = ?", doc.ID)
	if err != nil {
		return err
	}
	subExists, err := s.exists(ctx, &models.Subscription{}, "tenant_id = ?", doc.ID)
	if err != nil {
		return err
	}
	cfgExists, err := s.exists(ctx, &models.TenantConfig{}, "tenant_id = ?", doc.ID)
	if err != nil {
		return err
	}

	if !dryRun {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.tenantSvc.Upsert(tx, tenant); err != nil {
				return err
			}
			if err := s.subSvc.Upsert(tx, sub); err != nil {
				return err
			}
			return s.configSvc.Upsert(tx, cfg)
		})
		if err != nil {
			return err
		}
		// 迁移也是写操作，同样要保证写后读一致
		s.cache.Invalidate(ctx, cache.TenantKeys(doc.ID)...)
	}

	bump(&report.Tenants, tenantExists)
	bump(&report.Subscriptions, subExists)
	bump(&report.Configs, cfgExists)
	return nil
}

// exists 探测行是否已存在（含软删除行，避免迁移重建已删租户）
func (s *MigrationService) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).Unscoped().Where(query, args...).Count(&count).Error
	if err != nil {
		return false, apperrors.FromDB(err, "记录不存在")
	}
	return count > 0, nil
}

func bump(c *EntityCounts, existed bool) {
	if existed {
		c.Updated++
	} else {
		c.Created++
	}
}

// MapLegacyDocument 把旧文档映射为关系行
// 映射是纯函数，便于单测覆盖字段对应关系
func MapLegacyDocument(doc *LegacyTenantDocument) (*models.Tenant, *models.Subscription, *models.TenantConfig, error) {
	if doc.Name == "" {
		return nil, nil, nil, fmt.Errorf("文档缺少租户名称")
	}

	slug := doc.Slug
	if slug == "" {
		slug = Slugify(doc.Name)
	}

	modules := doc.Settings.Modules
	if len(modules) == 0 {
		modules = models.DefaultEnabledModules
	}
	modulesJSON, err := json.Marshal(modules)
	if err != nil {
		return nil, nil, nil, err
	}

	tenant := &models.Tenant{
		ID:             doc.ID,
		Slug:           slug,
		Name:           doc.Name,
		LogoURL:        doc.Branding.LogoURL,
		PrimaryColor:   defaultIfEmpty(doc.Branding.PrimaryColor, models.DefaultPrimaryColor),
		Locale:         defaultIfEmpty(doc.Settings.Locale, models.DefaultLocale),
		Currency:       defaultIfEmpty(doc.Settings.Currency, models.DefaultCurrency),
		Timezone:       defaultIfEmpty(doc.Settings.Timezone, models.DefaultTimezone),
		EnabledModules: datatypes.JSON(modulesJSON),
	}

	plan := doc.Subscription.Plan
	if !models.IsValidPlan(plan) {
		plan = models.PlanFree
	}
	sub := &models.Subscription{
		TenantID:    doc.ID,
		Plan:        plan,
		Status:      NormalizeLegacyStatus(doc.Subscription.Status),
		Gateway:     doc.Subscription.Gateway,
		RenewsAt:    doc.Subscription.RenewsAt,
		TrialEndsAt: doc.Subscription.TrialEndsAt,
		AmountMinor: doc.Subscription.Amount,
		Currency:    defaultIfEmpty(doc.Subscription.Currency, tenant.Currency),
	}

	if err := models.ValidateFieldSchema(doc.Config.CustomFields); err != nil {
		return nil, nil, nil, fmt.Errorf("自定义字段模式非法: %w", err)
	}
	fields := doc.Config.CustomFields
	if fields == nil {
		fields = []models.FieldDefinition{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg := &models.TenantConfig{
		TenantID: doc.ID,
		Fields:   datatypes.JSON(fieldsJSON),
	}

	return tenant, sub, cfg, nil
}

// NormalizeLegacyStatus 旧系统的订阅状态拼写归一
func NormalizeLegacyStatus(status string) string {
	switch status {
	case models.SubStatusTrial, models.SubStatusActive, models.SubStatusExpired,
		models.SubStatusCancelled, models.SubStatusPastDue, models.SubStatusPendingApproval:
		return status
	case "trialing":
		return models.SubStatusTrial
	case "canceled":
		return models.SubStatusCancelled
	case "pastdue", "past-due":
		return models.SubStatusPastDue
	default:
		return models.SubStatusExpired
	}
}
