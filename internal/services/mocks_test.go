package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"farmhub/internal/database"
	"farmhub/pkg/cache"
	"farmhub/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// nopKV 永远未命中的KV，缓存层降级为直接读库
type nopKV struct{}

func (nopKV) Get(ctx context.Context, key string) (string, error) { return "", cache.ErrMiss }
func (nopKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}
func (nopKV) Del(ctx context.Context, keys ...string) error { return nil }
func (nopKV) Ping(ctx context.Context) error                { return nil }
func (nopKV) Close() error                                  { return nil }

// setupMockDB 注入sqlmock支撑的gorm连接和空缓存
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	logger.GetLogger().SetOutput(io.Discard)
	database.SetDB(gormDB)
	database.SetCache(cache.New(
		&cache.Config{Prefix: "test", TTL: time.Minute, Timeout: time.Second},
		nopKV{}, logger.GetLogger()))

	return mock, func() { _ = sqlDB.Close() }
}
