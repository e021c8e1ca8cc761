package services_test

import (
	"testing"

	"farmhub/internal/database"
	"farmhub/internal/models"
	"farmhub/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTenantUpsert_UpdatesSlugOnConflict(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 重跑迁移时slug等可变字段必须跟随旧库最新值
	mock.ExpectBegin()
	mock.ExpectQuery(`ON CONFLICT \("id"\) DO UPDATE SET "slug"=`).
		WillReturnRows(sqlmock.NewRows([]string{"locale", "currency", "timezone"}).
			AddRow("en", "USD", "UTC"))
	mock.ExpectCommit()

	svc := services.NewTenantService()
	tenant := &models.Tenant{
		ID:             "t1",
		Slug:           "green-valley-renamed",
		Name:           "Green Valley",
		Locale:         "en",
		Currency:       "USD",
		Timezone:       "UTC",
		EnabledModules: datatypes.JSON(`["animals"]`),
	}

	require.NoError(t, svc.Upsert(database.GetDB(), tenant))
	require.NoError(t, mock.ExpectationsWereMet())
}
