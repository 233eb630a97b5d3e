package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pharmadms/config"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// Client Redis 客户端封装
// 用途：客户分配查询缓存、写接口限流、读取认证服务维护的 Token 黑名单
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromUniversal 使用已有客户端构造（测试或集群模式）
func NewFromUniversal(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── JSON 缓存 ──

// GetJSON 读取缓存并反序列化到 dest，未命中返回 ErrCacheMiss
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON 序列化 value 并写入缓存
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// ── 滑动窗口限流 ──

// CheckRateLimit 在 window 时长内最多允许 limit 次请求
// 基于有序集合：成员为请求时间戳，先清理窗口外成员再计数
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}

// ── Token 黑名单（由认证服务写入，本服务只读） ──

const blacklistPrefix = "token:blacklist:"

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
