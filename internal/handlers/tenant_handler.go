package handlers

import (
	"farmhub/internal/middleware"
	"farmhub/internal/services"
	"farmhub/pkg/pagination"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantHandler 租户元数据接口
type TenantHandler struct {
	service      *services.TenantService
	auditService *services.AuditService
}

func NewTenantHandler(service *services.TenantService, auditService *services.AuditService) *TenantHandler {
	return &TenantHandler{
		service:      service,
		auditService: auditService,
	}
}

// List 分页查询租户
func (h *TenantHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	keyword := c.Query("keyword")

	tenants, total, err := h.service.GetWithFiltersAndPage(c.Request.Context(), keyword, params.Page, params.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 获取租户
func (h *TenantHandler) GetByID(c *gin.Context) {
	tenant, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenant)
}

// GetBySlug 根据slug获取租户（登录页按农场域名前缀解析租户）
func (h *TenantHandler) GetBySlug(c *gin.Context) {
	tenant, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenant)
}

// UpdateBranding 更新品牌设置
func (h *TenantHandler) UpdateBranding(c *gin.Context) {
	var req services.UpdateBrandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.UpdateBranding(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Delete 软删除租户
func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "租户已删除", nil)
}

// ListAuditLogs 分页查询租户审计日志
func (h *TenantHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.ParsePageParams(c)

	logs, total, err := h.auditService.ListByTenantWithPage(c.Param("id"), params.Page, params.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, logs, pagination.NewPageInfo(params.Page, params.PageSize, total))
}
