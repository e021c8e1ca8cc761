package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"farmhub/internal/models"
	"farmhub/internal/services"

	"github.com/stretchr/testify/require"
)

func legacyDoc() *services.LegacyTenantDocument {
	doc := &services.LegacyTenantDocument{}
	doc.ID = "tenant-legacy-1"
	doc.Name = "Green Valley Farm"
	doc.Slug = "green-valley"
	doc.Branding.LogoURL = "https://cdn.example.com/logo.png"
	doc.Branding.PrimaryColor = "#123456"
	doc.Settings.Locale = "th"
	doc.Settings.Currency = "THB"
	doc.Settings.Timezone = "Asia/Bangkok"
	doc.Settings.Modules = []string{"animals", "feed"}
	doc.Config.CustomFields = []models.FieldDefinition{
		{ID: "f1", Name: "圈舍", Type: models.FieldTypeDropdown, Options: []string{"A", "B"}},
	}
	doc.Subscription.Plan = "professional"
	doc.Subscription.Status = "trialing"
	doc.Subscription.Gateway = "omise"
	doc.Subscription.Amount = 59900
	doc.Subscription.Currency = "THB"
	renews := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	doc.Subscription.RenewsAt = &renews
	return doc
}

func TestMapLegacyDocument(t *testing.T) {
	tenant, sub, cfg, err := services.MapLegacyDocument(legacyDoc())
	require.NoError(t, err)

	require.Equal(t, "tenant-legacy-1", tenant.ID)
	require.Equal(t, "green-valley", tenant.Slug)
	require.Equal(t, "Green Valley Farm", tenant.Name)
	require.Equal(t, "#123456", tenant.PrimaryColor)
	require.Equal(t, "th", tenant.Locale)
	require.Equal(t, "Asia/Bangkok", tenant.Timezone)

	var modules []string
	require.NoError(t, json.Unmarshal(tenant.EnabledModules, &modules))
	require.Equal(t, []string{"animals", "feed"}, modules)

	require.Equal(t, "tenant-legacy-1", sub.TenantID)
	require.Equal(t, models.PlanProfessional, sub.Plan)
	// 旧拼写 trialing 归一为 trial
	require.Equal(t, models.SubStatusTrial, sub.Status)
	require.Equal(t, int64(59900), sub.AmountMinor)
	require.Equal(t, "THB", sub.Currency)

	var fields []models.FieldDefinition
	require.NoError(t, json.Unmarshal(cfg.Fields, &fields))
	require.Len(t, fields, 1)
	require.Equal(t, models.FieldTypeDropdown, fields[0].Type)
}

func TestMapLegacyDocument_DefaultsFillGaps(t *testing.T) {
	doc := &services.LegacyTenantDocument{}
	doc.ID = "tenant-legacy-2"
	doc.Name = "Bare Farm"

	tenant, sub, cfg, err := services.MapLegacyDocument(doc)
	require.NoError(t, err)

	// slug 缺失时从名称派生
	require.Equal(t, "bare-farm", tenant.Slug)
	require.Equal(t, models.DefaultPrimaryColor, tenant.PrimaryColor)
	require.Equal(t, models.DefaultLocale, tenant.Locale)

	require.Equal(t, models.PlanFree, sub.Plan)

	var fields []models.FieldDefinition
	require.NoError(t, json.Unmarshal(cfg.Fields, &fields))
	require.Empty(t, fields)
}

func TestMapLegacyDocument_RejectsBadSchema(t *testing.T) {
	doc := legacyDoc()
	doc.Config.CustomFields = []models.FieldDefinition{
		{ID: "f1", Name: "坐标", Type: "geo"},
	}
	_, _, _, err := services.MapLegacyDocument(doc)
	require.Error(t, err)
}

func TestNormalizeLegacyStatus(t *testing.T) {
	require.Equal(t, models.SubStatusTrial, services.NormalizeLegacyStatus("trialing"))
	require.Equal(t, models.SubStatusCancelled, services.NormalizeLegacyStatus("canceled"))
	require.Equal(t, models.SubStatusPastDue, services.NormalizeLegacyStatus("pastdue"))
	require.Equal(t, models.SubStatusActive, services.NormalizeLegacyStatus("active"))
	// 无法识别的状态保守归为 expired
	require.Equal(t, models.SubStatusExpired, services.NormalizeLegacyStatus("whatever"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "green-valley-farm", services.Slugify("Green Valley Farm"))
	require.Equal(t, "farm-42", services.Slugify("  Farm_42 "))
	require.Equal(t, "farm", services.Slugify("!!!"))
}
