package services_test

import (
	"testing"
	"time"

	"farmhub/internal/models"
	"farmhub/internal/services"

	"github.com/stretchr/testify/require"
)

func TestPlanLimits_TierGatesCapacity(t *testing.T) {
	free := services.PlanLimits(models.PlanFree)
	require.Equal(t, 10, free.MaxAnimals)
	require.Equal(t, 2, free.MaxUsers)
	require.Contains(t, free.Features, "animals")

	pro := services.PlanLimits(models.PlanProfessional)
	require.Equal(t, 100, pro.MaxAnimals)
	require.Equal(t, 10, pro.MaxUsers)
	require.Contains(t, pro.Features, "custom_fields")

	farm := services.PlanLimits(models.PlanFarm)
	require.Equal(t, 500, farm.MaxAnimals)
	require.Equal(t, 25, farm.MaxUsers)

	ent := services.PlanLimits(models.PlanEnterprise)
	require.Equal(t, -1, ent.MaxAnimals)
	require.Equal(t, -1, ent.MaxUsers)
}

func TestPlanLimits_UnknownPlanFallsBackToFree(t *testing.T) {
	limits := services.PlanLimits("platinum")
	require.Equal(t, models.PlanFree, limits.Plan)
	require.Equal(t, 10, limits.MaxAnimals)
}

func TestNewTrialSubscription(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := services.NewTrialSubscription("t1", models.PlanProfessional, now)

	require.Equal(t, "t1", sub.TenantID)
	require.Equal(t, models.PlanProfessional, sub.Plan)
	require.Equal(t, models.SubStatusTrial, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	require.NotNil(t, sub.RenewsAt)
	// 默认14天试用、30天续费周期
	require.Equal(t, now.AddDate(0, 0, 14), *sub.TrialEndsAt)
	require.Equal(t, now.AddDate(0, 0, 30), *sub.RenewsAt)
}

func TestNewTrialSubscription_InvalidPlanBecomesFree(t *testing.T) {
	sub := services.NewTrialSubscription("t1", "", time.Now())
	require.Equal(t, models.PlanFree, sub.Plan)
}

func TestFarmIDFormat(t *testing.T) {
	svc := services.NewFarmIDService()
	require.Equal(t, "FM-2026-0042", svc.Format(2026, 42))
	require.Equal(t, "FM-2026-0001", svc.Format(2026, 1))
	// 序号超过补零宽度时不截断
	require.Equal(t, "FM-2026-12345", svc.Format(2026, 12345))
}
