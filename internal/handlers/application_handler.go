package handlers

import (
	"fmt"
	"strconv"

	"farmhub/internal/middleware"
	"farmhub/internal/services"
	"farmhub/pkg/pagination"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ApplicationHandler 入驻申请接口
type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
	}
}

// AttachPaymentRequest 上传付款凭证请求
type AttachPaymentRequest struct {
	SlipURL string `json:"slip_url" binding:"required"` // 对象存储返回的引用地址
	Amount  int64  `json:"amount" binding:"required,min=1"`
}

// ReviewRequest 审核动作请求
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// parseID 解析路径中的申请ID
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return 0, false
	}
	return uint(id), true
}

// Submit 提交入驻申请
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 解析验证错误，提供更友好的提示
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "ApplicantEmail":
					errorMsg = "申请人邮箱不能为空，且必须是合法的邮箱地址"
				case "FarmName":
					errorMsg = "农场名称不能为空，且长度在2-200个字符之间"
				case "RequestedPlan":
					errorMsg = "必须指定套餐等级"
				default:
					errorMsg = fmt.Sprintf("字段 %s 验证失败", fieldErr.Field())
				}
				break // 只返回第一个错误
			}
			response.BadRequest(c, errorMsg)
			return
		}
		response.BadRequest(c, "请求参数格式错误")
		return
	}

	app, err := h.service.Submit(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}

// List 分页查询申请
func (h *ApplicationHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")

	apps, total, err := h.service.GetWithFiltersAndPage(c.Request.Context(), status, params.Page, params.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, apps, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 获取单个申请
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}

// AttachPayment 上传付款凭证
func (h *ApplicationHandler) AttachPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AttachPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	app, err := h.service.AttachPayment(c.Request.Context(), id, middleware.CurrentUserID(c), req.SlipURL, req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}

// StartReview 进入审核
func (h *ApplicationHandler) StartReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := h.service.StartReview(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}

// Approve 批准申请并开通租户
func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "参数错误")
		return
	}

	app, result, err := h.service.Approve(c.Request.Context(), id, middleware.CurrentUserID(c), req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"application": app,
		"tenant":      result.Tenant,
		"farm_id":     result.FarmID,
	})
}

// UpdateNotes 修正审核备注（终态后仍允许）
func (h *ApplicationHandler) UpdateNotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	app, err := h.service.UpdateReviewNotes(c.Request.Context(), id, middleware.CurrentUserID(c), req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}

// Reject 拒绝申请
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "参数错误")
		return
	}

	app, err := h.service.Reject(c.Request.Context(), id, middleware.CurrentUserID(c), req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, app)
}
