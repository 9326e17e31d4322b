package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	pkgcache "github.com/ghuser/itemcatalog/pkg/cache"
	"github.com/ghuser/itemcatalog/pkg/logger"
	itemdomain "github.com/ghuser/itemcatalog/services/item/domain"
	domainevents "github.com/ghuser/itemcatalog/services/item/domain/events"
	"github.com/ghuser/itemcatalog/services/item/domain/models"
	"github.com/ghuser/itemcatalog/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/itemcatalog/services/item/domain/services"
)

const meterName = "github.com/ghuser/itemcatalog/services/item"

// ItemCache is the read model the service consults before Postgres.
// *pkgcache.ItemCache satisfies it; Get must return redis.Nil on a miss.
// Delete must bump the generation so that a SetIfCurrent based on an older
// generation is dropped.
type ItemCache interface {
	Get(ctx context.Context, itemID uuid.UUID) (*pkgcache.CachedItem, error)
	Generation(ctx context.Context, itemID uuid.UUID) (int64, error)
	SetIfCurrent(ctx context.Context, item *pkgcache.CachedItem, gen int64) (bool, error)
	Delete(ctx context.Context, itemID uuid.UUID) error
}

// ItemInput carries the caller-controlled fields of an item. ID is ignored by
// Create and identifies the target aggregate for Update.
type ItemInput struct {
	ID         uuid.UUID
	Name       string
	Reference  string
	Price      decimal.Decimal
	Variations []VariationInput
}

// VariationInput is one variation of an ItemInput.
type VariationInput struct {
	Size     string
	Quantity int
}

// Option configures an ItemService.
type Option func(*ItemService)

// WithClock overrides the time source used for pricing.
func WithClock(now func() time.Time) Option {
	return func(s *ItemService) { s.clock = now }
}

// WithLocation evaluates time-based discounts in loc instead of the process
// zone. It applies to whatever clock is configured, in any option order.
func WithLocation(loc *time.Location) Option {
	return func(s *ItemService) { s.loc = loc }
}

// ItemService orchestrates the Item aggregate lifecycle and annotates every
// returned item with its effective price.
// Event publishing is handled by the repository layer (outbox pattern).
// Reads by id are served from Redis cache when available.
type ItemService struct {
	repo      repositories.ItemRepository
	cache     ItemCache
	log       logger.Logger
	clock     func() time.Time
	loc       *time.Location
	discounts metric.Int64Counter
}

// NewItemService returns an ItemService wired with the given repository and cache.
// A nil cache disables read-through caching.
func NewItemService(repo repositories.ItemRepository, itemCache ItemCache, log logger.Logger, opts ...Option) *ItemService {
	s := &ItemService{
		repo:  repo,
		cache: itemCache,
		log:   log,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"catalog.item.discounts",
		metric.WithDescription("Items served with a discounted effective price, by winning rule"),
	)
	if err != nil {
		log.Warn("item service: discount counter unavailable", "error", err)
		counter = noop.Int64Counter{}
	}
	s.discounts = counter
	return s
}

// List returns every item priced at a single instant.
func (s *ItemService) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	now := s.now()
	priced := make([]*models.Item, len(items))
	for i, item := range items {
		priced[i] = s.price(ctx, item, now)
	}
	return priced, nil
}

// GetByID retrieves an Item using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), note the cache generation and query Postgres.
//  3. Warm the cache before returning, unless an eviction ran since step 2.
//
// The effective price is computed after the read in both cases.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var (
		gen     int64
		canWarm bool
	)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return s.price(ctx, fromCached(cached), s.now()), nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
		if gen, err = s.cache.Generation(ctx, id); err == nil {
			canWarm = true
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if canWarm {
		s.warm(ctx, item, gen)
	}
	return s.price(ctx, item, s.now()), nil
}

// Create validates and persists a new Item with its variations. Any id in the
// input is discarded. The repository publishes ItemCreatedEvent.
func (s *ItemService) Create(ctx context.Context, in ItemInput) (*models.Item, error) {
	name, ref, specs, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	item, err := models.NewItem(name, ref, in.Price, specs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}
	if err := domainsvcs.ValidateItem(item); err != nil {
		return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	s.log.InfoContext(ctx, "item created", "item_id", item.ID, "variations", len(item.Variations))
	return s.price(ctx, item, s.now()), nil
}

// Update replaces the aggregate identified by in.ID with the input. The old
// variations and item row are deleted and the new ones inserted inside one
// transaction, keeping the id and creation time. Fields and variations absent
// from the input are cleared. Returns ErrItemNotFound without writing anything
// when the item does not exist; any failure leaves the old aggregate intact.
func (s *ItemService) Update(ctx context.Context, in ItemInput) error {
	name, ref, specs, err := parseInput(in)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	replacement, err := models.NewReplacement(existing, name, ref, in.Price, specs)
	if err != nil {
		return fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}
	if err := domainsvcs.ValidateItem(replacement); err != nil {
		return fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	err = s.repo.WithinTx(ctx, func(tx repositories.ItemTx) error {
		for _, v := range existing.Variations {
			if err := tx.DeleteVariation(ctx, v.ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteItem(ctx, existing.ID); err != nil {
			return err
		}
		if err := tx.InsertItem(ctx, replacement); err != nil {
			return err
		}
		for _, v := range replacement.Variations {
			if err := tx.InsertVariation(ctx, v); err != nil {
				return err
			}
		}
		return tx.Publish(ctx, domainevents.TopicItemReplaced, domainevents.NewItemReplaced(replacement, time.Now().UTC()))
	})
	if err != nil {
		s.log.ErrorContext(ctx, "item replace rolled back", "item_id", in.ID, "error", err)
		return fmt.Errorf("replace item: %w", err)
	}

	s.evict(ctx, in.ID)
	s.log.InfoContext(ctx, "item replaced", "item_id", in.ID, "variations", len(replacement.Variations))
	return nil
}

// Delete removes an item together with its variations.
// Returns ErrItemNotFound if no matching item exists.
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if err := s.repo.Delete(ctx, existing); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.evict(ctx, id)
	s.log.InfoContext(ctx, "item deleted", "item_id", id)
	return nil
}

// price returns a priced copy of item and records which rule discounted it.
func (s *ItemService) price(ctx context.Context, item *models.Item, now time.Time) *models.Item {
	priced := domainsvcs.ApplyPricing(item, now)
	if _, rule := domainsvcs.EffectivePrice(item, now); rule != domainsvcs.DiscountNone {
		s.discounts.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", string(rule))))
	}
	return priced
}

func (s *ItemService) now() time.Time {
	t := s.clock()
	if s.loc != nil {
		t = t.In(s.loc)
	}
	return t
}

func (s *ItemService) warm(ctx context.Context, item *models.Item, gen int64) {
	ok, err := s.cache.SetIfCurrent(context.WithoutCancel(ctx), ToCachedItem(item), gen)
	switch {
	case err != nil:
		s.log.WarnContext(ctx, "item cache warm failed", "item_id", item.ID, "error", err)
	case !ok:
		s.log.DebugContext(ctx, "item cache warm skipped after eviction", "item_id", item.ID)
	}
}

func (s *ItemService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.log.WarnContext(ctx, "item cache evict failed", "item_id", id, "error", err)
	}
}

func parseInput(in ItemInput) (models.ItemName, models.Reference, []models.VariationSpec, error) {
	name, err := models.NewItemName(in.Name)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}
	if err := domainsvcs.ValidateName(name); err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}

	ref, err := models.NewReference(in.Reference)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	specs := make([]models.VariationSpec, len(in.Variations))
	for i, v := range in.Variations {
		specs[i] = models.VariationSpec{Size: v.Size, Quantity: v.Quantity}
	}
	return name, ref, specs, nil
}

// ToCachedItem converts item to the Redis read model. The stored list price is
// kept, never an effective price.
func ToCachedItem(item *models.Item) *pkgcache.CachedItem {
	vs := make([]pkgcache.CachedVariation, len(item.Variations))
	for i, v := range item.Variations {
		vs[i] = pkgcache.CachedVariation{ID: v.ID, Size: v.Size, Quantity: v.Quantity}
	}
	return &pkgcache.CachedItem{
		ID:         item.ID,
		Name:       item.Name.String(),
		Reference:  item.Reference.String(),
		Price:      item.Price,
		Variations: vs,
		CreatedAt:  item.CreatedAt,
	}
}

func fromCached(c *pkgcache.CachedItem) *models.Item {
	item := &models.Item{
		ID:         c.ID,
		Name:       models.ItemName(c.Name),
		Reference:  models.Reference(c.Reference),
		Price:      c.Price,
		Variations: make([]models.Variation, len(c.Variations)),
		CreatedAt:  c.CreatedAt,
	}
	for i, v := range c.Variations {
		item.Variations[i] = models.Variation{ID: v.ID, ItemID: c.ID, Size: v.Size, Quantity: v.Quantity}
	}
	return item
}
