package handlers

import (
	"farmhub/internal/services"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// MigrationHandler 旧库迁移的管理接口
type MigrationHandler struct {
	service *services.MigrationService
	source  services.LegacySource
}

func NewMigrationHandler(service *services.MigrationService, source services.LegacySource) *MigrationHandler {
	return &MigrationHandler{
		service: service,
		source:  source,
	}
}

// RunMigrationRequest 迁移请求
type RunMigrationRequest struct {
	DryRun   bool   `json:"dry_run"`
	TenantID string `json:"tenant_id"` // 可选，单租户过滤
}

// Run 执行迁移批次
func (h *MigrationHandler) Run(c *gin.Context) {
	var req RunMigrationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "参数错误")
		return
	}

	report, err := h.service.Run(c.Request.Context(), h.source, services.MigrationOptions{
		DryRun:   req.DryRun,
		TenantID: req.TenantID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, report)
}
