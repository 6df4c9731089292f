// Package cache provides an optional Redis-backed cache for aggregated
// article sets, keyed by a fingerprint of the normalized query. A nil
// *ArticleCache disables caching; Redis failures degrade to cache misses.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

const DefaultTTL = 10 * time.Minute

type ArticleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New connects to Redis and verifies it with a ping. addr empty is the
// caller's signal to not construct a cache at all.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *log.Logger) (*ArticleCache, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", addr, err)
	}
	return &ArticleCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *ArticleCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Key fingerprints a normalized query. Source order is irrelevant to the
// result set, so the list is sorted before hashing.
func Key(q sources.Query, selected []string) string {
	names := append([]string(nil), selected...)
	sort.Strings(names)
	raw := strings.Join([]string{
		q.Start,
		q.End,
		strings.ToLower(q.Topic()),
		q.Lang(),
		fmt.Sprintf("%d", q.PerSource(200)),
		strings.Join(names, ","),
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return "osint:articles:" + hex.EncodeToString(sum[:])
}

type entry struct {
	Articles []sources.Article    `json:"articles"`
	Stats    []sources.SourceStat `json:"stats"`
}

// Get returns the cached article set, or ok=false on miss or any Redis error.
func (c *ArticleCache) Get(ctx context.Context, key string) ([]sources.Article, []sources.SourceStat, bool) {
	if c == nil {
		return nil, nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("get %s: %v", key, err)
		}
		return nil, nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Printf("decode %s: %v", key, err)
		return nil, nil, false
	}
	return e.Articles, e.Stats, true
}

// Put stores the article set; failures are logged and swallowed.
func (c *ArticleCache) Put(ctx context.Context, key string, articles []sources.Article, stats []sources.SourceStat) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(entry{Articles: articles, Stats: stats})
	if err != nil {
		c.logger.Printf("encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Printf("set %s: %v", key, err)
	}
}
