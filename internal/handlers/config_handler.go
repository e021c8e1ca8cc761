package handlers

import (
	"farmhub/internal/middleware"
	"farmhub/internal/models"
	"farmhub/internal/services"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// ConfigHandler 租户自定义字段配置接口
type ConfigHandler struct {
	service *services.ConfigService
}

func NewConfigHandler(service *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		service: service,
	}
}

// UpdateSchemaRequest 自定义字段模式更新请求
type UpdateSchemaRequest struct {
	Fields []models.FieldDefinition `json:"fields"`
}

// Get 读取租户配置视图（走缓存）
func (h *ConfigHandler) Get(c *gin.Context) {
	view, err := h.service.GetByTenantID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, view)
}

// UpdateSchema 更新自定义字段模式
func (h *ConfigHandler) UpdateSchema(c *gin.Context) {
	var req UpdateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	cfg, err := h.service.UpdateSchema(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), req.Fields)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, cfg)
}
