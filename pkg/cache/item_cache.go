package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "item"
)

// CachedItem is the denormalized read model stored in Redis.
// Price is always the stored list price; effective prices are computed per read.
type CachedItem struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Reference  string            `json:"reference"`
	Price      decimal.Decimal   `json:"price"`
	Variations []CachedVariation `json:"variations"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CachedVariation is one variation of a CachedItem. The list is stored as a
// single JSON field of the hash.
type CachedVariation struct {
	ID       uuid.UUID `json:"id"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
}

// ItemCache provides structured read/write operations for item cache entries.
// Key format: "item:{itemID}", with the invalidation counter at "item:{itemID}:gen".
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item by ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil // key not found
	}
	return decodeItem(vals)
}

// Generation returns the item's invalidation counter. Delete bumps it; a
// missing counter reads as zero.
func (c *ItemCache) Generation(ctx context.Context, itemID uuid.UUID) (int64, error) {
	gen, err := c.client.Client().Get(ctx, c.genKey(itemID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

// SetIfCurrent writes item as a Redis hash with a 24-hour TTL, but only while
// the invalidation counter still equals gen. It reports false when a Delete
// ran after gen was read, leaving the cache untouched.
func (c *ItemCache) SetIfCurrent(ctx context.Context, item *CachedItem, gen int64) (bool, error) {
	fields, err := encodeItem(item)
	if err != nil {
		return false, err
	}
	key, genKey := c.key(item.ID), c.genKey(item.ID)

	written := false
	err = c.client.Client().Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fields...)
			pipe.Expire(ctx, key, ItemCacheTTL)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return written, nil
}

// Delete removes a cached item and bumps its invalidation counter so that
// in-flight SetIfCurrent calls are discarded. Deleting a missing key is not an error.
func (c *ItemCache) Delete(ctx context.Context, itemID uuid.UUID) error {
	genKey := c.genKey(itemID)
	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, c.key(itemID))
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, ItemCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "item:{itemID}"
func (c *ItemCache) key(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}

func (c *ItemCache) genKey(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:gen", itemCacheKeyPrefix, itemID)
}

func encodeItem(item *CachedItem) ([]any, error) {
	variations := item.Variations
	if variations == nil {
		variations = []CachedVariation{}
	}
	vs, err := json.Marshal(variations)
	if err != nil {
		return nil, fmt.Errorf("cache encode variations: %w", err)
	}
	return []any{
		"id", item.ID.String(),
		"name", item.Name,
		"reference", item.Reference,
		"price", item.Price.String(),
		"variations", string(vs),
		"created_at", item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func decodeItem(vals map[string]string) (*CachedItem, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	price, err := decimal.NewFromString(vals["price"])
	if err != nil {
		return nil, fmt.Errorf("cache parse price: %w", err)
	}
	var variations []CachedVariation
	if err := json.Unmarshal([]byte(vals["variations"]), &variations); err != nil {
		return nil, fmt.Errorf("cache parse variations: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}

	return &CachedItem{
		ID:         id,
		Name:       vals["name"],
		Reference:  vals["reference"],
		Price:      price,
		Variations: variations,
		CreatedAt:  createdAt,
	}, nil
}
