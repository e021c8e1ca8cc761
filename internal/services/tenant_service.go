package services

import (
	"context"
	"fmt"
	"strings"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/pkg/cache"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantService 租户元数据的读写入口
type TenantService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
	audit *AuditService
}

// NewTenantService 创建租户服务
func NewTenantService() *TenantService {
	return &TenantService{
		db:    database.GetDB(),
		cache: database.GetCache(),
		log:   logger.GetLogger(),
		audit: NewAuditService(),
	}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *TenantService) GetWithFiltersAndPage(ctx context.Context, keyword string, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Tenant{})

	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR slug LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.FromDB(err, "租户不存在")
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&tenants).Error
	if err != nil {
		return nil, 0, apperrors.FromDB(err, "租户不存在")
	}

	return tenants, total, nil
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "租户不存在")
	}
	return &tenant, nil
}

// GetBySlug 根据slug获取租户
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "租户不存在")
	}
	return &tenant, nil
}

// UpdateBrandingRequest 品牌设置更新请求
type UpdateBrandingRequest struct {
	Name         string `json:"name"`
	LogoURL      string `json:"logo_url"`
	PrimaryColor string `json:"primary_color"`
	Locale       string `json:"locale"`
	Currency     string `json:"currency"`
	Timezone     string `json:"timezone"`
}

// UpdateBranding 更新租户品牌与区域设置
// 写库成功后、返回调用方之前完成缓存失效，保证写后读一致
func (s *TenantService) UpdateBranding(ctx context.Context, id, actorID string, req *UpdateBrandingRequest) (*models.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.LogoURL != "" {
		tenant.LogoURL = req.LogoURL
	}
	if req.PrimaryColor != "" {
		tenant.PrimaryColor = req.PrimaryColor
	}
	if req.Locale != "" {
		tenant.Locale = req.Locale
	}
	if req.Currency != "" {
		tenant.Currency = req.Currency
	}
	if req.Timezone != "" {
		tenant.Timezone = req.Timezone
	}

	if err := s.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, apperrors.FromDB(err, "租户不存在")
	}

	s.cache.Invalidate(ctx, cache.TenantKeys(id)...)

	s.audit.Record(AuditEntry{
		TenantID:     &tenant.ID,
		ActorID:      actorID,
		Action:       models.AuditActionTenantUpdate,
		ResourceType: "tenant",
		ResourceID:   tenant.ID,
		Detail:       map[string]interface{}{"name": tenant.Name},
	})

	return tenant, nil
}

// SoftDelete 软删除租户，订阅行保留
func (s *TenantService) SoftDelete(ctx context.Context, id, actorID string) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(tenant).Error; err != nil {
		return apperrors.FromDB(err, "租户不存在")
	}

	s.cache.Invalidate(ctx, cache.TenantKeys(id)...)

	s.audit.Record(AuditEntry{
		TenantID:     &tenant.ID,
		ActorID:      actorID,
		Action:       models.AuditActionTenantDelete,
		ResourceType: "tenant",
		ResourceID:   tenant.ID,
	})

	return nil
}

// Upsert 按主键做幂等写入，迁移工具复用
func (s *TenantService) Upsert(tx *gorm.DB, tenant *models.Tenant) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"slug", "name", "logo_url", "primary_color", "locale", "currency", "timezone", "enabled_modules", "updated_at",
		}),
	}).Create(tenant).Error
	return apperrors.FromDB(err, "租户不存在")
}

// ========== slug 相关 ==========

// Slugify 把显示名称转成slug：小写、空白转连字符、去掉其余字符
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "farm"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return slug
}

// EnsureUniqueSlug 在事务内探测slug冲突，冲突时追加序号
func (s *TenantService) EnsureUniqueSlug(tx *gorm.DB, base string) (string, error) {
	slug := Slugify(base)
	candidate := slug
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&models.Tenant{}).Unscoped().Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", apperrors.FromDB(err, "租户不存在")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
		if i > 50 {
			return "", apperrors.NewConflict(fmt.Sprintf("无法为 %s 生成唯一slug", base))
		}
	}
}
