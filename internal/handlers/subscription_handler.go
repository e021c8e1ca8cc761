package handlers

import (
	"farmhub/internal/middleware"
	"farmhub/internal/services"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler 订阅与限额接口
type SubscriptionHandler struct {
	service *services.SubscriptionService
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
	}
}

// BillingEventRequest 计费事件回调请求
type BillingEventRequest struct {
	Event string `json:"event" binding:"required"`
}

// Get 读取租户订阅（走缓存）
func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.service.GetByTenantID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, sub)
}

// GetLimits 读取租户套餐限额（走缓存）
// 业务CRUD层创建记录前调用
func (h *SubscriptionHandler) GetLimits(c *gin.Context) {
	limits, err := h.service.GetLimits(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, limits)
}

// ApplyEvent 应用计费事件
func (h *SubscriptionHandler) ApplyEvent(c *gin.Context) {
	var req BillingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	sub, err := h.service.ApplyBillingEvent(c.Request.Context(), c.Param("id"), req.Event, middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, sub)
}
