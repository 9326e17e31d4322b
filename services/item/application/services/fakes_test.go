package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/itemcatalog/pkg/cache"
	itemdomain "github.com/ghuser/itemcatalog/services/item/domain"
	"github.com/ghuser/itemcatalog/services/item/domain/models"
	"github.com/ghuser/itemcatalog/services/item/domain/repositories"
)

// memRepo stores items and variations as separate rows, like the real schema,
// so a transaction can be observed half-applied and rolled back.
type memRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]models.Item
	variations map[uuid.UUID]models.Variation
	published  []string

	findErr error
	getErr  error
	saveErr error
	delErr  error

	// failStep makes the named ItemTx operation return failErr.
	failStep string
	failErr  error
	txSteps  []string
	txCount  int
}

func newMemRepo(seed ...*models.Item) *memRepo {
	r := &memRepo{
		items:      make(map[uuid.UUID]models.Item),
		variations: make(map[uuid.UUID]models.Variation),
	}
	for _, it := range seed {
		r.put(r.items, r.variations, it)
	}
	return r
}

func (r *memRepo) put(items map[uuid.UUID]models.Item, vars map[uuid.UUID]models.Variation, it *models.Item) {
	row := *it
	row.Variations = nil
	items[it.ID] = row
	for _, v := range it.Variations {
		vars[v.ID] = v
	}
}

func (r *memRepo) load(id uuid.UUID) (*models.Item, bool) {
	row, ok := r.items[id]
	if !ok {
		return nil, false
	}
	item := row
	item.Variations = []models.Variation{}
	for _, v := range r.variations {
		if v.ItemID == id {
			item.Variations = append(item.Variations, v)
		}
	}
	sort.Slice(item.Variations, func(i, j int) bool { return item.Variations[i].Size < item.Variations[j].Size })
	return &item, true
}

func (r *memRepo) FindAll(_ context.Context) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]*models.Item, 0, len(r.items))
	for id := range r.items {
		it, _ := r.load(id)
		out = append(out, it)
	}
	return out, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	it, ok := r.load(id)
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	return it, nil
}

func (r *memRepo) Save(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.items[item.ID]; ok {
		return itemdomain.ErrItemAlreadyExists
	}
	r.put(r.items, r.variations, item)
	r.published = append(r.published, "item.created")
	return nil
}

func (r *memRepo) Delete(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delErr != nil {
		return r.delErr
	}
	for id, v := range r.variations {
		if v.ItemID == item.ID {
			delete(r.variations, id)
		}
	}
	delete(r.items, item.ID)
	r.published = append(r.published, "item.deleted")
	return nil
}

func (r *memRepo) WithinTx(_ context.Context, fn func(tx repositories.ItemTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCount++

	tx := &memTx{
		repo:       r,
		items:      make(map[uuid.UUID]models.Item, len(r.items)),
		variations: make(map[uuid.UUID]models.Variation, len(r.variations)),
	}
	for k, v := range r.items {
		tx.items[k] = v
	}
	for k, v := range r.variations {
		tx.variations[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	r.items, r.variations = tx.items, tx.variations
	r.published = append(r.published, tx.published...)
	return nil
}

func (r *memRepo) snapshot(id uuid.UUID) (*models.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id)
}

func (r *memRepo) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.published...)
}

type memTx struct {
	repo       *memRepo
	items      map[uuid.UUID]models.Item
	variations map[uuid.UUID]models.Variation
	published  []string
}

func (t *memTx) step(name string) error {
	t.repo.txSteps = append(t.repo.txSteps, name)
	if t.repo.failStep == name {
		return t.repo.failErr
	}
	return nil
}

func (t *memTx) DeleteVariation(_ context.Context, id uuid.UUID) error {
	if err := t.step("DeleteVariation"); err != nil {
		return err
	}
	delete(t.variations, id)
	return nil
}

func (t *memTx) DeleteItem(_ context.Context, id uuid.UUID) error {
	if err := t.step("DeleteItem"); err != nil {
		return err
	}
	for _, v := range t.variations {
		if v.ItemID == id {
			return errors.New("foreign key violation: variations still reference item")
		}
	}
	delete(t.items, id)
	return nil
}

func (t *memTx) InsertItem(_ context.Context, item *models.Item) error {
	if err := t.step("InsertItem"); err != nil {
		return err
	}
	if _, ok := t.items[item.ID]; ok {
		return itemdomain.ErrItemAlreadyExists
	}
	row := *item
	row.Variations = nil
	t.items[item.ID] = row
	return nil
}

func (t *memTx) InsertVariation(_ context.Context, v models.Variation) error {
	if err := t.step("InsertVariation"); err != nil {
		return err
	}
	if _, ok := t.items[v.ItemID]; !ok {
		return errors.New("foreign key violation: unknown item")
	}
	t.variations[v.ID] = v
	return nil
}

func (t *memTx) Publish(_ context.Context, topic string, _ any) error {
	if err := t.step("Publish"); err != nil {
		return err
	}
	t.published = append(t.published, topic)
	return nil
}

// memCache is an in-memory ItemCache with the generation semantics of
// pkgcache.ItemCache. When hold is set, SetIfCurrent signals entered and then
// waits for hold to close before checking the generation.
type memCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pkgcache.CachedItem
	gens    map[uuid.UUID]int64
	getErr  error
	deleted []uuid.UUID

	hold    chan struct{}
	entered chan struct{}
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[uuid.UUID]*pkgcache.CachedItem),
		gens:    make(map[uuid.UUID]int64),
	}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (*pkgcache.CachedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[id]
	if !ok {
		return nil, redis.Nil
	}
	return e, nil
}

func (c *memCache) Generation(_ context.Context, id uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id], nil
}

func (c *memCache) SetIfCurrent(_ context.Context, item *pkgcache.CachedItem, gen int64) (bool, error) {
	if c.hold != nil {
		close(c.entered)
		<-c.hold
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[item.ID] != gen {
		return false, nil
	}
	c.entries[item.ID] = item
	return true, nil
}

func (c *memCache) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.gens[id]++
	c.deleted = append(c.deleted, id)
	return nil
}

// put seeds an entry directly.
func (c *memCache) put(item *models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[item.ID] = ToCachedItem(item)
}

func (c *memCache) has(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}
