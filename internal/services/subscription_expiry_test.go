package services_test

import (
	"context"
	"testing"
	"time"

	"farmhub/internal/models"
	"farmhub/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func elapsedTrialRows(id int64, tenantID string, endsAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "tenant_id", "plan", "status",
		"gateway", "renews_at", "trial_ends_at", "amount_minor", "currency",
	}).AddRow(id, now, now, tenantID, models.PlanProfessional, models.SubStatusTrial,
		"", nil, endsAt, int64(0), "USD")
}

func TestExpireElapsedTrials_ExpiresElapsedTrial(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnRows(elapsedTrialRows(5, "t1", time.Now().Add(-time.Hour)))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := services.NewSubscriptionService()
	count, err := svc.ExpireElapsedTrials(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireElapsedTrials_SkipsConcurrentlyRenewedSubscription(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnRows(elapsedTrialRows(5, "t1", time.Now().Add(-time.Hour)))
	// 条件更新未命中：扫描间隙该订阅已被续费事件推进为active，
	// 不允许把已付费的订阅覆盖为expired
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	svc := services.NewSubscriptionService()
	count, err := svc.ExpireElapsedTrials(context.Background())

	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
