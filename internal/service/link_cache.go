package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/redis/go-redis/v9"
)

// LinkCache 保存链接列表的本地副本。
// 写操作成功后直接修补副本（编辑替换、新增追加、删除过滤），而不是重新拉取，
// 因此其他进程的外部修改要等到副本过期后才可见。
// 未缓存任何列表时，修补操作不产生效果。
type LinkCache interface {
	Get(ctx context.Context) ([]db.Link, bool)
	Set(ctx context.Context, links []db.Link)
	Append(ctx context.Context, link db.Link)
	Replace(ctx context.Context, link db.Link)
	Remove(ctx context.Context, id uint)
	Invalidate(ctx context.Context)
}

func appendLink(links []db.Link, link db.Link) []db.Link {
	return append(slices.Clone(links), link)
}

func replaceLink(links []db.Link, link db.Link) []db.Link {
	patched := slices.Clone(links)
	for i := range patched {
		if patched[i].ID == link.ID {
			patched[i] = link
		}
	}
	return patched
}

func removeLink(links []db.Link, id uint) []db.Link {
	return slices.DeleteFunc(slices.Clone(links), func(l db.Link) bool {
		return l.ID == id
	})
}

// MemoryLinkCache 是进程内的 TTL 缓存。ttl 为 0 时不缓存。
type MemoryLinkCache struct {
	mu      sync.RWMutex
	links   []db.Link
	cached  bool
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryLinkCache 构造 MemoryLinkCache
func NewMemoryLinkCache(ttl time.Duration) *MemoryLinkCache {
	return &MemoryLinkCache{ttl: ttl, now: time.Now}
}

func (c *MemoryLinkCache) Get(context.Context) ([]db.Link, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.cached || c.now().After(c.expires) {
		return nil, false
	}
	return slices.Clone(c.links), true
}

func (c *MemoryLinkCache) Set(_ context.Context, links []db.Link) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.links = slices.Clone(links)
	if c.links == nil {
		c.links = []db.Link{}
	}
	c.cached = true
	c.expires = c.now().Add(c.ttl)
}

func (c *MemoryLinkCache) Append(_ context.Context, link db.Link) {
	c.patch(func(links []db.Link) []db.Link { return appendLink(links, link) })
}

func (c *MemoryLinkCache) Replace(_ context.Context, link db.Link) {
	c.patch(func(links []db.Link) []db.Link { return replaceLink(links, link) })
}

func (c *MemoryLinkCache) Remove(_ context.Context, id uint) {
	c.patch(func(links []db.Link) []db.Link { return removeLink(links, id) })
}

func (c *MemoryLinkCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = nil
	c.cached = false
}

func (c *MemoryLinkCache) patch(fn func([]db.Link) []db.Link) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cached {
		return
	}
	c.links = fn(c.links)
}

const redisLinksKey = "linkpage:links"

// RedisLinkCache 把链接列表以 JSON 形式保存在 Redis 中，供多个实例共享。
// Redis 不可用时视为未命中，只记录日志。
type RedisLinkCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLinkCache 构造 RedisLinkCache
func NewRedisLinkCache(client *redis.Client, ttl time.Duration) *RedisLinkCache {
	return &RedisLinkCache{client: client, key: redisLinksKey, ttl: ttl}
}

func (c *RedisLinkCache) Get(ctx context.Context) ([]db.Link, bool) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msg("read link cache")
		}
		return nil, false
	}

	var links []db.Link
	if err := json.Unmarshal(raw, &links); err != nil {
		logger.Warn().Err(err).Msg("decode link cache")
		return nil, false
	}
	return links, true
}

func (c *RedisLinkCache) Set(ctx context.Context, links []db.Link) {
	if c.ttl <= 0 {
		return
	}
	c.write(ctx, links, c.ttl)
}

func (c *RedisLinkCache) Append(ctx context.Context, link db.Link) {
	c.patch(ctx, func(links []db.Link) []db.Link { return appendLink(links, link) })
}

func (c *RedisLinkCache) Replace(ctx context.Context, link db.Link) {
	c.patch(ctx, func(links []db.Link) []db.Link { return replaceLink(links, link) })
}

func (c *RedisLinkCache) Remove(ctx context.Context, id uint) {
	c.patch(ctx, func(links []db.Link) []db.Link { return removeLink(links, id) })
}

func (c *RedisLinkCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		logger.Warn().Err(err).Msg("invalidate link cache")
	}
}

func (c *RedisLinkCache) patch(ctx context.Context, fn func([]db.Link) []db.Link) {
	links, ok := c.Get(ctx)
	if !ok {
		return
	}
	c.write(ctx, fn(links), redis.KeepTTL)
}

func (c *RedisLinkCache) write(ctx context.Context, links []db.Link, ttl time.Duration) {
	if links == nil {
		links = []db.Link{}
	}
	payload, err := json.Marshal(links)
	if err != nil {
		logger.Warn().Err(err).Msg("encode link cache")
		return
	}
	if err := c.client.Set(ctx, c.key, payload, ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("write link cache")
	}
}
