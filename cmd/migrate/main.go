package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"farmhub/internal/database"
	"farmhub/internal/services"
	"farmhub/pkg/config"
	"farmhub/pkg/logger"
)

// 旧文档库迁移的离线批处理入口
func main() {
	var (
		sourcePath = flag.String("source", "", "旧库JSON导出文件路径（默认取配置）")
		dryRun     = flag.Bool("dry-run", false, "只计算不写入")
		tenantID   = flag.String("tenant", "", "只迁移指定租户ID")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := database.Initialize(cfg); err != nil {
		logger.GetLogger().Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.GetLogger().Fatalf("Failed to migrate database: %v", err)
	}

	path := *sourcePath
	if path == "" {
		path = cfg.Migration.ExportPath
	}

	report, err := services.NewMigrationService().Run(
		context.Background(),
		&services.FileLegacySource{Path: path},
		services.MigrationOptions{DryRun: *dryRun, TenantID: *tenantID},
	)
	if err != nil {
		logger.GetLogger().Fatalf("Migration failed: %v", err)
	}

	mode := "live"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("migration finished (%s)\n", mode)
	fmt.Printf("  tenants:       created=%d updated=%d\n", report.Tenants.Created, report.Tenants.Updated)
	fmt.Printf("  subscriptions: created=%d updated=%d\n", report.Subscriptions.Created, report.Subscriptions.Updated)
	fmt.Printf("  configs:       created=%d updated=%d\n", report.Configs.Created, report.Configs.Updated)
	fmt.Printf("  errors:        %d\n", len(report.Errors))
	for _, e := range report.Errors {
		fmt.Printf("    - %s\n", e)
	}
}
