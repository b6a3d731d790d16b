package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultCacheTTL 是缓存条目的默认新鲜期
const DefaultCacheTTL = 5 * time.Minute

var cacheKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Cache 是落盘的键值缓存，每个键一个 JSON 文件。
// 缓存只是性能优化：任何读写错误（配额、损坏的 JSON）都按未命中处理，
// 绝不成为正确性依赖。
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEnvelope struct {
	SavedAt time.Time       `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// NewCache 构造 Cache，ttl 不合法时使用默认值。
func NewCache(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

// Load 读取缓存到 dst。ok 为 false 表示未命中；
// stale 表示条目超过 TTL，数据仍会写入 dst，由调用方决定是否刷新。
func (c *Cache) Load(key string, dst interface{}) (stale bool, ok bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return false, false
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return false, false
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		return false, false
	}

	return c.now().Sub(envelope.SavedAt) > c.ttl, true
}

// Save 写入缓存，失败静默忽略。
func (c *Cache) Save(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	raw, err := json.Marshal(cacheEnvelope{SavedAt: c.now(), Data: data})
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), raw, 0o644)
}

// Clear 删除缓存条目，失败静默忽略。
func (c *Cache) Clear(key string) {
	_ = os.Remove(c.path(key))
}

func (c *Cache) path(key string) string {
	name := cacheKeyPattern.ReplaceAllString(key, "_")
	return filepath.Join(c.dir, name+".json")
}
