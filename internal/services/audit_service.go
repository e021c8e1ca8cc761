package services

import (
	"encoding/json"

	"farmhub/internal/database"
	"farmhub/internal/models"
	apperrors "farmhub/pkg/errors"
	"farmhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService 审计日志写入器
// 尽力而为：写入失败只记日志，绝不影响触发它的业务操作，
// 也绝不参与业务操作的事务
type AuditService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewAuditService 创建审计服务
func NewAuditService() *AuditService {
	return &AuditService{
		db:  database.GetDB(),
		log: logger.GetLogger(),
	}
}

// AuditEntry 审计条目输入
type AuditEntry struct {
	TenantID     *string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Detail       map[string]interface{}
	RequestID    string
	ClientIP     string
}

// Record 异步追加一条审计日志
func (s *AuditService) Record(entry AuditEntry) {
	go s.write(entry)
}

// write 实际写入，任何失败都被吞掉
func (s *AuditService) write(entry AuditEntry) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("审计日志写入panic: %v", r)
		}
	}()

	var detail datatypes.JSON
	if entry.Detail != nil {
		data, err := json.Marshal(entry.Detail)
		if err != nil {
			s.log.Warnf("审计日志明细序列化失败: action=%s err=%v", entry.Action, err)
		} else {
			detail = datatypes.JSON(data)
		}
	}

	requestID := entry.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	log := &models.AuditLog{
		TenantID:     entry.TenantID,
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Detail:       detail,
		RequestID:    requestID,
		ClientIP:     entry.ClientIP,
	}

	if err := s.db.Create(log).Error; err != nil {
		s.log.Errorf("审计日志写入失败: action=%s resource=%s/%s err=%v",
			entry.Action, entry.ResourceType, entry.ResourceID, err)
	}
}

// ListByTenantWithPage 按租户分页查询审计日志
func (s *AuditService) ListByTenantWithPage(tenantID string, page, pageSize int) ([]*models.AuditLog, int64, error) {
	var logs []*models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.FromDB(err, "审计日志不存在")
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return nil, 0, apperrors.FromDB(err, "审计日志不存在")
	}

	return logs, total, nil
}
