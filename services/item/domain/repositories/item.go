package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
// Every read returns items with their variations loaded.
type ItemRepository interface {
	// FindAll returns every item in the catalog. Order is unspecified.
	FindAll(ctx context.Context) ([]*models.Item, error)

	// GetByID returns ErrItemNotFound when no item has the given id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// Save persists a new item and all of its variations as one write and
	// publishes an ItemCreatedEvent alongside it.
	Save(ctx context.Context, item *models.Item) error

	// Delete removes the item's variations, then the item, as one write and
	// publishes an ItemDeletedEvent alongside it.
	Delete(ctx context.Context, item *models.Item) error

	// WithinTx runs fn inside a single database transaction. The transaction
	// commits when fn returns nil and rolls back on any error or panic.
	WithinTx(ctx context.Context, fn func(tx ItemTx) error) error
}

// ItemTx exposes the row-level writes needed to replace an aggregate.
// Implementations are only valid inside WithinTx.
type ItemTx interface {
	DeleteVariation(ctx context.Context, id uuid.UUID) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	InsertItem(ctx context.Context, item *models.Item) error
	InsertVariation(ctx context.Context, v models.Variation) error

	// Publish writes event to the outbox as part of the transaction.
	Publish(ctx context.Context, topic string, event any) error
}
