package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

// Watermill topics published by the item repository through the outbox.
const (
	TopicItemCreated  = "item.created"
	TopicItemReplaced = "item.replaced"
	TopicItemDeleted  = "item.deleted"
)

// EventVersion is the current schema version shared by all item events.
// Increment on breaking changes.
const EventVersion = 1

// ItemSnapshot is the full aggregate state carried by created/replaced events.
// Price is the stored list price, never an effective price.
type ItemSnapshot struct {
	ItemID     uuid.UUID           `json:"item_id"`
	Name       string              `json:"name"`
	Reference  string              `json:"reference"`
	Price      decimal.Decimal     `json:"price"`
	Variations []VariationSnapshot `json:"variations"`
	CreatedAt  time.Time           `json:"created_at"`
}

// VariationSnapshot is one variation inside an ItemSnapshot.
type VariationSnapshot struct {
	ID       uuid.UUID `json:"id"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
}

// ItemCreatedEvent is published after a new Item aggregate is persisted.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicItemCreated).
type ItemCreatedEvent struct {
	EventID    uuid.UUID    `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemReplacedEvent is published when an update replaced the whole aggregate.
type ItemReplacedEvent struct {
	EventID    uuid.UUID    `json:"event_id"`
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemDeletedEvent is published after an aggregate and its variations were removed.
type ItemDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSnapshot captures item for an event payload.
func NewSnapshot(item *models.Item) ItemSnapshot {
	vs := make([]VariationSnapshot, len(item.Variations))
	for i, v := range item.Variations {
		vs[i] = VariationSnapshot{ID: v.ID, Size: v.Size, Quantity: v.Quantity}
	}
	return ItemSnapshot{
		ItemID:     item.ID,
		Name:       item.Name.String(),
		Reference:  item.Reference.String(),
		Price:      item.Price,
		Variations: vs,
		CreatedAt:  item.CreatedAt,
	}
}

// NewItemCreated builds an ItemCreatedEvent for item.
func NewItemCreated(item *models.Item, at time.Time) ItemCreatedEvent {
	return ItemCreatedEvent{EventID: uuid.New(), Version: EventVersion, Item: NewSnapshot(item), OccurredAt: at}
}

// NewItemReplaced builds an ItemReplacedEvent for the replacement aggregate.
func NewItemReplaced(item *models.Item, at time.Time) ItemReplacedEvent {
	return ItemReplacedEvent{EventID: uuid.New(), Version: EventVersion, Item: NewSnapshot(item), OccurredAt: at}
}

// NewItemDeleted builds an ItemDeletedEvent for the removed aggregate id.
func NewItemDeleted(id uuid.UUID, at time.Time) ItemDeletedEvent {
	return ItemDeletedEvent{EventID: uuid.New(), Version: EventVersion, ItemID: id, OccurredAt: at}
}
