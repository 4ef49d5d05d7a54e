package repository

import (
	"context"
	"time"

	"CareAlert/internal/dispatch"
	"CareAlert/pkg/cache"
)

const memberCacheKeyPrefix = "group_members:"

// CachedResolver 组成员解析的缓存装饰器。每次警报下发都要读一遍成员，
// 成员变更频率远低于警报频率，短 TTL 足以兜住一致性
type CachedResolver struct {
	inner dispatch.MemberResolver
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedResolver 创建带缓存的成员解析
func NewCachedResolver(inner dispatch.MemberResolver, c cache.Cache, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedResolver{inner: inner, cache: c, ttl: ttl}
}

// ResolveMembers 先查缓存，未命中时回源并回填。解析失败不缓存
func (r *CachedResolver) ResolveMembers(ctx context.Context, groupID string) ([]string, error) {
	key := memberCacheKeyPrefix + groupID
	if value, found := r.cache.Get(ctx, key); found {
		if members, ok := value.([]string); ok {
			return members, nil
		}
		// 类型不符（比如经由 redis 反序列化），丢弃缓存走回源
		_ = r.cache.Delete(ctx, key)
	}

	members, err := r.inner.ResolveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, members, r.ttl)
	return members, nil
}

// Invalidate 成员变更后清除该组缓存
func (r *CachedResolver) Invalidate(ctx context.Context, groupID string) {
	_ = r.cache.Delete(ctx, memberCacheKeyPrefix+groupID)
}
