package providers

import (
	"fmt"
	"github.com/coocood/freecache"
	"time"
	"timekeeper/internal/structures"
	"unsafe"
)

// FlowCacheInterface holds short-lived correlation entries between two
// request cycles. A missing entry and an expired one look the same.
type FlowCacheInterface interface {
	Set(key string, value []byte, ttl time.Duration) error
	Is(key string) bool
	Get(key string) ([]byte, bool)
	Clear(key string) bool
}

type FlowCacheProvider struct {
	cache *freecache.Cache
}

func NewFlowCacheProvider(conf *structures.Config, logger Logger) FlowCacheInterface {
	sizeBytes := max(conf.FlowCache.Size, 1) * 1024 * 1024

	logger.Infof(TypeApp, "Flow cache initialized: %dMB, TTL=%s", sizeBytes/1024/1024, conf.FlowCache.TTL)

	return &FlowCacheProvider{
		cache: freecache.NewCache(sizeBytes),
	}
}

// unsafeStringToBytes converts string to []byte without allocation. The
// result must stay read-only; freecache copies keys before storing them.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// ttlSeconds rounds up to freecache's one-second resolution. Zero would
// mean "never expire" to freecache, so the floor is one second.
func ttlSeconds(ttl time.Duration) int {
	secs := int((ttl + time.Second - 1) / time.Second)
	return max(secs, 1)
}

func (c *FlowCacheProvider) Set(key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("flow cache: empty key")
	}
	return c.cache.Set(unsafeStringToBytes(key), value, ttlSeconds(ttl))
}

func (c *FlowCacheProvider) Is(key string) bool {
	_, err := c.cache.TTL(unsafeStringToBytes(key))
	return err == nil
}

func (c *FlowCacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *FlowCacheProvider) Clear(key string) bool {
	return c.cache.Del(unsafeStringToBytes(key))
}
