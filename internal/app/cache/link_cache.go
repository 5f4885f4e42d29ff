package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	linkKeyPrefix = "link:"
	// Filter capacity; at one million aliases the false-positive rate
	// stays around 1%.
	filterCapacity = 1_000_000
	filterFPRate   = 0.01
)

// LinkCache resolves aliases for the redirect path. It layers a bloom
// filter of known aliases (to short-circuit lookups that cannot succeed)
// over a Redis cache of recently resolved records, falling back to the
// authoritative store.
//
// The cache is a pure performance optimisation: analytics reads and click
// writes always go to the store directly. Cached records are safe to serve
// until expiry because links are immutable after creation.
type LinkCache struct {
	rdb    *redis.Client
	links  repository.LinkRepository
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// New creates a link cache. Call Warm before serving traffic to seed the
// alias filter; until then every lookup goes through Redis and the store.
func New(rdb *redis.Client, links repository.LinkRepository, ttl time.Duration, logger *zap.Logger) *LinkCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkCache{
		rdb:    rdb,
		links:  links,
		ttl:    ttl,
		logger: logger,
	}
}

// Warm rebuilds the alias filter from the store. It can be called again at
// runtime to pick up aliases created by other processes.
func (c *LinkCache) Warm(ctx context.Context) error {
	codes, err := c.links.ListCodes(ctx)
	if err != nil {
		return err
	}

	filter := bloom.NewWithEstimates(filterCapacity, filterFPRate)
	for _, code := range codes {
		filter.AddString(code)
	}

	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()

	c.logger.Info("alias filter warmed", zap.Int("codes", len(codes)))
	return nil
}

// AddCode registers a freshly created alias with the filter so the next
// redirect does not get filtered out.
func (c *LinkCache) AddCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filter != nil {
		c.filter.AddString(code)
	}
}

// Resolve returns the link behind an alias, trying filter, cache and store
// in that order. Unknown aliases yield repository.ErrLinkNotFound.
func (c *LinkCache) Resolve(ctx context.Context, code string) (*model.Link, error) {
	if !c.mayExist(code) {
		infraprom.CacheLookups.WithLabelValues("filtered").Inc()
		return nil, repository.ErrLinkNotFound
	}

	if link := c.fromRedis(ctx, code); link != nil {
		infraprom.CacheLookups.WithLabelValues("hit").Inc()
		return link, nil
	}
	infraprom.CacheLookups.WithLabelValues("miss").Inc()

	link, err := c.links.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	c.toRedis(ctx, code, link)
	return link, nil
}

func (c *LinkCache) mayExist(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter == nil {
		// Not warmed yet; cannot rule anything out.
		return true
	}
	return c.filter.TestString(code)
}

func (c *LinkCache) fromRedis(ctx context.Context, code string) *model.Link {
	data, err := c.rdb.Get(ctx, linkKeyPrefix+code).Bytes()
	if err != nil {
		if err != redis.Nil {
			// Cache trouble falls through to the store.
			c.logger.Warn("link cache read failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		c.logger.Warn("link cache entry corrupt", zap.String("code", code), zap.Error(err))
		return nil
	}
	return &link
}

func (c *LinkCache) toRedis(ctx context.Context, code string, link *model.Link) {
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, linkKeyPrefix+code, data, c.ttl).Err(); err != nil {
		c.logger.Warn("link cache write failed", zap.String("code", code), zap.Error(err))
	}
}
