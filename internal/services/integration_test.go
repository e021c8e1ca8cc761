//go:build integration

package services_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"farmhub/internal/database"
	"farmhub/internal/services"
	"farmhub/pkg/cache"
	"farmhub/pkg/config"
	"farmhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// setupIntegration 连接真实postgres，连不上则跳过整个用例
func setupIntegration(t *testing.T) {
	t.Helper()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	if err := database.Initialize(cfg); err != nil {
		t.Skipf("postgres不可用，跳过: %v", err)
	}
	require.NoError(t, database.Migrate())

	database.SetCache(cache.New(
		&cache.Config{Prefix: "it", TTL: time.Minute, Timeout: time.Second},
		nopKV{}, logger.GetLogger()))
}

func TestFarmIDAllocator_ConcurrentAllocationsAreUnique(t *testing.T) {
	setupIntegration(t)

	svc := services.NewFarmIDService()
	year := 3000 + rand.Intn(5000)

	const n = 24
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool, n)
	)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Next(database.GetDB(), year)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	// 并发分配不允许出现重复编号
	require.Len(t, ids, n)
}

func writeLegacyExport(t *testing.T, path string, docs []services.LegacyTenantDocument) {
	t.Helper()
	data, err := json.Marshal(docs)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func newLegacyDoc(name string) services.LegacyTenantDocument {
	doc := services.LegacyTenantDocument{}
	doc.ID = "it-" + uuid.NewString()
	doc.Name = name
	doc.Slug = "it-" + uuid.NewString()
	doc.Subscription.Plan = "free"
	doc.Subscription.Status = "active"
	return doc
}

func TestMigrationRun_RerunIsIdempotent(t *testing.T) {
	setupIntegration(t)

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tenants.json")
	docs := []services.LegacyTenantDocument{
		newLegacyDoc("Idempotent Farm A"),
		newLegacyDoc("Idempotent Farm B"),
	}
	writeLegacyExport(t, path, docs)

	svc := services.NewMigrationService()
	source := &services.FileLegacySource{Path: path}

	first, err := svc.Run(ctx, source, services.MigrationOptions{})
	require.NoError(t, err)
	require.Empty(t, first.Errors)
	require.Equal(t, 2, first.Tenants.Created)
	require.Equal(t, 0, first.Tenants.Updated)
	require.Equal(t, 2, first.Subscriptions.Created)
	require.Equal(t, 2, first.Configs.Created)

	// 旧库slug变更后重跑：不新建行，可变字段跟随更新
	docs[0].Slug = "it-renamed-" + uuid.NewString()
	writeLegacyExport(t, path, docs)

	second, err := svc.Run(ctx, source, services.MigrationOptions{})
	require.NoError(t, err)
	require.Empty(t, second.Errors)
	require.Equal(t, 0, second.Tenants.Created)
	require.Equal(t, 2, second.Tenants.Updated)
	require.Equal(t, 0, second.Subscriptions.Created)
	require.Equal(t, 2, second.Subscriptions.Updated)
	require.Equal(t, 0, second.Configs.Created)
	require.Equal(t, 2, second.Configs.Updated)

	tenant, err := services.NewTenantService().GetByID(ctx, docs[0].ID)
	require.NoError(t, err)
	require.Equal(t, docs[0].Slug, tenant.Slug)
}
