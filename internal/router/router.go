package router

import (
	"context"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/handlers"
	"farmhub/internal/middleware"
	"farmhub/internal/services"
	"farmhub/pkg/config"
	"farmhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	auth := middleware.NewAuthMiddleware()

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 入驻申请
		appHandler := handlers.NewApplicationHandler(services.NewApplicationService())
		appGroup := api.Group("/applications", auth.RequireLogin())
		{
			appGroup.POST("", appHandler.Submit)
			appGroup.GET("", auth.RequirePlatformAdmin(), appHandler.List)
			appGroup.GET("/:id", appHandler.GetByID)
			appGroup.POST("/:id/payment", appHandler.AttachPayment)
			// 审核动作仅平台管理员可用
			appGroup.POST("/:id/review", auth.RequirePlatformAdmin(), appHandler.StartReview)
			appGroup.POST("/:id/approve", auth.RequirePlatformAdmin(), appHandler.Approve)
			appGroup.POST("/:id/reject", auth.RequirePlatformAdmin(), appHandler.Reject)
			appGroup.PATCH("/:id/notes", auth.RequirePlatformAdmin(), appHandler.UpdateNotes)
		}

		// 租户
		tenantHandler := handlers.NewTenantHandler(services.NewTenantService(), services.NewAuditService())
		subHandler := handlers.NewSubscriptionHandler(services.NewSubscriptionService())
		configHandler := handlers.NewConfigHandler(services.NewConfigService())
		tenantGroup := api.Group("/tenants", auth.RequireLogin())
		{
			tenantGroup.GET("", auth.RequirePlatformAdmin(), tenantHandler.List)
			tenantGroup.GET("/:id", tenantHandler.GetByID)
			tenantGroup.GET("/slug/:slug", tenantHandler.GetBySlug)
			tenantGroup.PUT("/:id/branding", tenantHandler.UpdateBranding)
			tenantGroup.DELETE("/:id", auth.RequirePlatformAdmin(), tenantHandler.Delete)
			tenantGroup.GET("/:id/audit-logs", auth.RequirePlatformAdmin(), tenantHandler.ListAuditLogs)

			tenantGroup.GET("/:id/config", configHandler.Get)
			tenantGroup.PUT("/:id/config", configHandler.UpdateSchema)

			tenantGroup.GET("/:id/subscription", subHandler.Get)
			tenantGroup.GET("/:id/limits", subHandler.GetLimits)
			tenantGroup.POST("/:id/subscription/events", auth.RequirePlatformAdmin(), subHandler.ApplyEvent)
		}

		// 旧库迁移（离线批处理的在线触发入口）
		migrationHandler := handlers.NewMigrationHandler(
			services.NewMigrationService(),
			&services.FileLegacySource{Path: config.GetConfig().Migration.ExportPath},
		)
		provisionHandler := handlers.NewProvisionHandler(services.NewProvisionService())
		adminGroup := api.Group("/admin", auth.RequireLogin(), auth.RequirePlatformAdmin())
		{
			adminGroup.POST("/migration", migrationHandler.Run)
			adminGroup.POST("/tenants", provisionHandler.Create)
		}
	}
}

// healthCheck 健康检查
func healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	// 缓存故障不影响健康状态，只做标记
	if err := database.GetCache().Ping(ctx); err != nil {
		status["cache"] = "degraded"
	} else {
		status["cache"] = "ok"
	}

	response.Success(c, status)
}

// ping 存活探测
func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
