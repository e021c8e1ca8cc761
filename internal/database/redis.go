package database

import (
	"sync"

	"farmhub/pkg/cache"
	"farmhub/pkg/config"
	"farmhub/pkg/logger"
)

var (
	cacheInstance *cache.Cache
	cacheOnce     sync.Once
)

// GetCache 获取租户缓存的单例实例
func GetCache() *cache.Cache {
	cacheOnce.Do(func() {
		cfg := config.GetConfig()
		cacheInstance = cache.NewRedis(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Cache.TTL,
			Timeout:  cfg.Cache.Timeout,
		}, logger.GetLogger())
	})
	return cacheInstance
}

// SetCache 注入缓存实例（测试用）
func SetCache(c *cache.Cache) {
	cacheOnce.Do(func() {})
	cacheInstance = c
}

// CloseCache 关闭Redis连接
func CloseCache() error {
	if cacheInstance != nil {
		return cacheInstance.Close()
	}
	return nil
}
