package handlers

import (
	"farmhub/internal/middleware"
	"farmhub/internal/services"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProvisionHandler 租户直接开通接口
// 不走申请工作流的开通入口，用于平台方手工接入已谈妥的农场
type ProvisionHandler struct {
	service *services.ProvisionService
}

func NewProvisionHandler(service *services.ProvisionService) *ProvisionHandler {
	return &ProvisionHandler{
		service: service,
	}
}

// ProvisionRequest 直接开通请求
type ProvisionRequest struct {
	ExternalID   string `json:"external_id"` // 身份提供方下发的租户ID，可选
	FarmName     string `json:"farm_name" binding:"required,min=2,max=200"`
	Plan         string `json:"plan" binding:"required"`
	SlugBasis    string `json:"slug_basis"`
	LogoURL      string `json:"logo_url"`
	PrimaryColor string `json:"primary_color"`
	Locale       string `json:"locale"`
	Currency     string `json:"currency"`
	Timezone     string `json:"timezone"`
}

// Create 直接开通租户
func (h *ProvisionHandler) Create(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.Provision(c.Request.Context(), &services.ProvisionInput{
		ExternalID:      req.ExternalID,
		ApplicantUserID: middleware.CurrentUserID(c),
		FarmName:        req.FarmName,
		SlugBasis:       req.SlugBasis,
		LogoURL:         req.LogoURL,
		PrimaryColor:    req.PrimaryColor,
		Locale:          req.Locale,
		Currency:        req.Currency,
		Timezone:        req.Timezone,
		Plan:            req.Plan,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
