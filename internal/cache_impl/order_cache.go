package cache_impl

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

//go:generate mockgen -source=order_cache.go -destination=mocks/mock.go -package=mocks

type CacheI interface {
	Get(key string) (value *models.Order, ok bool)
	Add(key string, value *models.Order) (evicted bool)
}

// Cache keeps orders by id for a bounded time. Values are copied in and out
// so a caller can never mutate a cached order.
type Cache struct {
	cache *expirable.LRU[string, *models.Order]
	log   logger.Logger
}

func NewCache(log logger.Logger, size int, ttl time.Duration) *Cache {
	return &Cache{
		cache: expirable.NewLRU[string, *models.Order](size, nil, ttl),
		log:   log,
	}
}

func (c *Cache) Add(key string, value *models.Order) (evicted bool) {
	evicted = c.cache.Add(key, value.Clone())
	if evicted {
		c.log.Debug("cache_impl.Cache.Add", logger.String("reason", "size exceeded"))
	}
	return evicted
}

func (c *Cache) Get(key string) (value *models.Order, ok bool) {
	value, ok = c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return value.Clone(), true
}
