package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/itemcatalog/pkg/database"
	"github.com/ghuser/itemcatalog/pkg/events"
	itemdomain "github.com/ghuser/itemcatalog/services/item/domain"
	domainevents "github.com/ghuser/itemcatalog/services/item/domain/events"
	"github.com/ghuser/itemcatalog/services/item/domain/models"
	"github.com/ghuser/itemcatalog/services/item/domain/repositories"
	"github.com/ghuser/itemcatalog/services/item/infrastructure/persistence/postgres/db"
)

const uniqueViolation = "23505"

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository returns an ItemRepository backed by the given connection pool
// and event bus. A nil bus disables outbox publishing, which tests rely on.
func NewItemRepository(database *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: database, bus: bus}
}

// FindAll loads every item with its variations using two queries.
func (r *ItemRepository) FindAll(ctx context.Context) ([]*models.Item, error) {
	q := db.New(r.db.DB())

	rows, err := q.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	vrows, err := q.ListVariations(ctx)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}

	byItem := make(map[uuid.UUID][]db.ItemVariation, len(rows))
	for _, v := range vrows {
		byItem[v.ItemID] = append(byItem[v.ItemID], v)
	}

	items := make([]*models.Item, len(rows))
	for i, row := range rows {
		items[i] = rowToItem(row, byItem[row.ID])
	}
	return items, nil
}

// GetByID retrieves an Item and its variations. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	q := db.New(r.db.DB())
	row, err := q.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}

	vrows, err := q.ListVariationsByItemID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}
	return rowToItem(row, vrows), nil
}

// Save persists a new Item with its variations and publishes an ItemCreatedEvent
// within the same transaction. Returns ErrItemAlreadyExists on unique constraint violations.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.WithinTx(ctx, func(tx repositories.ItemTx) error {
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		for _, v := range item.Variations {
			if err := tx.InsertVariation(ctx, v); err != nil {
				return err
			}
		}
		return tx.Publish(ctx, domainevents.TopicItemCreated, domainevents.NewItemCreated(item, time.Now().UTC()))
	})
}

// Delete removes the item's variations, then the item, and publishes an
// ItemDeletedEvent within the same transaction.
func (r *ItemRepository) Delete(ctx context.Context, item *models.Item) error {
	return r.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		q := db.New(sqlTx)
		if err := q.DeleteVariationsByItemID(ctx, item.ID); err != nil {
			return fmt.Errorf("delete variations: %w", err)
		}
		if err := q.DeleteItem(ctx, item.ID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		t := &itemTx{tx: sqlTx, q: q, bus: r.bus}
		return t.Publish(ctx, domainevents.TopicItemDeleted, domainevents.NewItemDeleted(item.ID, time.Now().UTC()))
	})
}

// WithinTx runs fn with a transaction-scoped ItemTx. The transaction commits when
// fn returns nil; the error from fn is returned unchanged otherwise.
func (r *ItemRepository) WithinTx(ctx context.Context, fn func(tx repositories.ItemTx) error) error {
	return r.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&itemTx{tx: sqlTx, q: db.New(sqlTx), bus: r.bus})
	})
}

// itemTx implements repositories.ItemTx on top of one *sql.Tx.
type itemTx struct {
	tx  *sql.Tx
	q   *db.Queries
	bus *events.EventBus
}

func (t *itemTx) DeleteVariation(ctx context.Context, id uuid.UUID) error {
	if err := t.q.DeleteVariation(ctx, id); err != nil {
		return fmt.Errorf("delete variation: %w", err)
	}
	return nil
}

func (t *itemTx) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := t.q.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (t *itemTx) InsertItem(ctx context.Context, item *models.Item) error {
	if err := t.q.InsertItem(ctx, db.InsertItemParams{
		ID:        item.ID,
		Name:      item.Name.String(),
		Reference: item.Reference.String(),
		Price:     item.Price,
		CreatedAt: item.CreatedAt,
	}); err != nil {
		if isUniqueViolation(err) {
			return itemdomain.ErrItemAlreadyExists
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (t *itemTx) InsertVariation(ctx context.Context, v models.Variation) error {
	if err := t.q.InsertVariation(ctx, db.InsertVariationParams{
		ID:       v.ID,
		ItemID:   v.ItemID,
		Size:     v.Size,
		Quantity: int32(v.Quantity), //nolint:gosec // ValidateItem bounds quantities to MaxQuantity
	}); err != nil {
		if isUniqueViolation(err) {
			return itemdomain.ErrItemAlreadyExists
		}
		return fmt.Errorf("insert variation: %w", err)
	}
	return nil
}

// Publish marshals event and writes it to the outbox through the transaction.
// It is a no-op when the repository has no event bus.
func (t *itemTx) Publish(ctx context.Context, topic string, event any) error {
	if t.bus == nil {
		return nil
	}
	msg, err := events.NewMessage(ctx, event, domainevents.EventVersion)
	if err != nil {
		return err
	}

	p, err := t.bus.NewTxPublisher(t.tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// rowToItem maps a db.ItemItem and its variation rows to a domain models.Item.
func rowToItem(row db.ItemItem, vrows []db.ItemVariation) *models.Item {
	item := &models.Item{
		ID:         row.ID,
		Name:       models.ItemName(row.Name),
		Reference:  models.Reference(row.Reference),
		Price:      row.Price,
		Variations: make([]models.Variation, len(vrows)),
		CreatedAt:  row.CreatedAt.UTC(),
	}
	for i, v := range vrows {
		item.Variations[i] = models.Variation{
			ID:       v.ID,
			ItemID:   v.ItemID,
			Size:     v.Size,
			Quantity: int(v.Quantity),
		}
	}
	return item
}
