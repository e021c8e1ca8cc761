package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// KV 键值存储抽象，便于测试注入
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisKV 基于go-redis的KV实现
type RedisKV struct {
	client *redis.Client
}

// Config Redis缓存配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	Timeout  time.Duration
}

// NewRedisKV 创建Redis客户端
func NewRedisKV(cfg *Config) *RedisKV {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}

// Cache 旁路缓存封装
// 缓存只是读路径的加速层，数据库永远是唯一权威：
// 未命中或缓存故障时穿透到loader，故障只记日志，绝不上抛给调用方
type Cache struct {
	kv      KV
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	log     *logrus.Logger
}

// New 创建缓存封装
func New(cfg *Config, kv KV, log *logrus.Logger) *Cache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "farmhub:cache"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Cache{
		kv:      kv,
		prefix:  prefix,
		ttl:     ttl,
		timeout: timeout,
		log:     log,
	}
}

// NewRedis 创建基于Redis的缓存封装
func NewRedis(cfg *Config, log *logrus.Logger) *Cache {
	return New(cfg, NewRedisKV(cfg), log)
}

// ========== 键命名 ==========

// TenantConfigKey 租户自定义字段配置缓存键
func TenantConfigKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:config", tenantID)
}

// TenantSubscriptionKey 租户订阅缓存键
func TenantSubscriptionKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:subscription", tenantID)
}

// TenantLimitsKey 租户套餐限额缓存键
func TenantLimitsKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:limits", tenantID)
}

// TenantKeys 租户的全部缓存键，写操作统一失效
func TenantKeys(tenantID string) []string {
	return []string{
		TenantConfigKey(tenantID),
		TenantSubscriptionKey(tenantID),
		TenantLimitsKey(tenantID),
	}
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + ":" + key
}

// bounded 给单次缓存操作加超时，超时按缓存故障降级处理
func (c *Cache) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// GetOrLoad 旁路读取：命中返回缓存值，未命中执行loader并回填
// loader的返回值以JSON形式写入缓存并解码到dest
func (c *Cache) GetOrLoad(ctx context.Context, key string, dest interface{}, loader func() (interface{}, error)) error {
	getCtx, cancel := c.bounded(ctx)
	raw, err := c.kv.Get(getCtx, c.fullKey(key))
	cancel()
	if err == nil {
		if uerr := json.Unmarshal([]byte(raw), dest); uerr == nil {
			return nil
		}
		// 缓存值损坏，当作未命中回源
		c.log.Warnf("缓存值解码失败，回源读取: key=%s", key)
	} else if err != ErrMiss {
		c.log.Warnf("缓存读取失败，降级为直接读库: key=%s err=%v", key, err)
	}

	value, err := loader()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	setCtx, setCancel := c.bounded(ctx)
	if serr := c.kv.Set(setCtx, c.fullKey(key), string(data), c.ttl); serr != nil {
		c.log.Warnf("缓存回填失败: key=%s err=%v", key, serr)
	}
	setCancel()

	return json.Unmarshal(data, dest)
}

// Invalidate 删除指定缓存键
// 在写操作返回前同步执行；缓存故障只记日志，由TTL兜底过期
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.fullKey(k))
	}
	delCtx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.kv.Del(delCtx, full...); err != nil {
		c.log.Errorf("缓存失效失败: keys=%v err=%v", keys, err)
	}
}

// Ping 测试缓存连接
func (c *Cache) Ping(ctx context.Context) error {
	return c.kv.Ping(ctx)
}

// Close 关闭缓存连接
func (c *Cache) Close() error {
	return c.kv.Close()
}
