package database

import (
	"farmhub/internal/models"
	"farmhub/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Tenant{},
		&models.Subscription{},
		&models.FarmApplication{},
		&models.TenantConfig{},
		&models.AuditLog{},
		&models.FarmIDSequence{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
