// Package subscribers holds the item event handlers run by the worker.
package subscribers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/itemcatalog/pkg/events"
	"github.com/ghuser/itemcatalog/pkg/logger"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
	itemEvents "github.com/ghuser/itemcatalog/services/item/domain/events"
)

// CacheProjector keeps the Redis read model in step with item events.
// Topics are delivered independently with no ordering between them, so every
// event evicts and the read path repopulates from Postgres. An eviction can
// never resurrect an item the way a late snapshot write could.
type CacheProjector struct {
	cache appsvcs.ItemCache
	log   logger.Logger
}

// NewCacheProjector returns a CacheProjector writing to itemCache.
func NewCacheProjector(itemCache appsvcs.ItemCache, log logger.Logger) *CacheProjector {
	return &CacheProjector{cache: itemCache, log: log}
}

// Topics maps each subscribed topic to its handler.
func (p *CacheProjector) Topics() map[string]events.Handler {
	return map[string]events.Handler{
		itemEvents.TopicItemCreated:  p.HandleCreated,
		itemEvents.TopicItemReplaced: p.HandleReplaced,
		itemEvents.TopicItemDeleted:  p.HandleDeleted,
	}
}

// HandleCreated drops any entry left over for the new id.
func (p *CacheProjector) HandleCreated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemCreatedEvent](msg)
	if err != nil {
		return fmt.Errorf("%s: %w", itemEvents.TopicItemCreated, err)
	}
	return p.evict(ctx, itemEvents.TopicItemCreated, evt.Item.ItemID)
}

// HandleReplaced evicts the pre-replacement entry. It covers the window in
// which a reader cached the old aggregate after the service's own eviction.
func (p *CacheProjector) HandleReplaced(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemReplacedEvent](msg)
	if err != nil {
		return fmt.Errorf("%s: %w", itemEvents.TopicItemReplaced, err)
	}
	return p.evict(ctx, itemEvents.TopicItemReplaced, evt.Item.ItemID)
}

// HandleDeleted evicts the cache entry.
func (p *CacheProjector) HandleDeleted(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemDeletedEvent](msg)
	if err != nil {
		return fmt.Errorf("%s: %w", itemEvents.TopicItemDeleted, err)
	}
	return p.evict(ctx, itemEvents.TopicItemDeleted, evt.ItemID)
}

// evict failures are returned so the bus retries them: a stale entry would
// keep serving outdated data until its TTL.
func (p *CacheProjector) evict(ctx context.Context, topic string, id uuid.UUID) error {
	if err := p.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("evict item %s: %w", id, err)
	}
	p.log.InfoContext(ctx, "cache evicted", "topic", topic, "item_id", id)
	return nil
}
