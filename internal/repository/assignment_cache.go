package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pharmadms/internal/model"
	"pharmadms/pkg/redis"
)

// JSONCache 分配查询缓存所需的最小能力，由 *redis.Client 实现
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const assignmentCachePrefix = "visit:assignments:"

// cachedAssignmentRepo 在 AssignmentRepository 前加一层读缓存
// 缓存故障只记录日志并回源，不影响主流程
type cachedAssignmentRepo struct {
	next   AssignmentRepository
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAssignmentRepo 创建带缓存的分配查询；ttl<=0 时直接返回 next
func NewCachedAssignmentRepo(next AssignmentRepository, cache JSONCache, ttl time.Duration, logger *zap.Logger) AssignmentRepository {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedAssignmentRepo{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedAssignmentRepo) ListCustomersByRepresentative(ctx context.Context, representativeID string) ([]model.Customer, error) {
	key := assignmentCachePrefix + representativeID

	var cached []model.Customer
	err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		r.logger.Warn("读取分配缓存失败，回源查询", zap.String("key", key), zap.Error(err))
	}

	customers, err := r.next.ListCustomersByRepresentative(ctx, representativeID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, key, customers, r.ttl); err != nil {
		r.logger.Warn("写入分配缓存失败", zap.String("key", key), zap.Error(err))
	}
	return customers, nil
}
