package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the core aggregate for this bounded context. It exclusively owns its
// Variations: they are created, replaced and deleted only together with the Item.
type Item struct {
	ID         uuid.UUID
	Name       ItemName
	Reference  Reference
	Price      decimal.Decimal // undiscounted list price; pricing never writes back here
	Variations []Variation
	CreatedAt  time.Time
}

// Variation is a stock bucket (size, pack, ...) belonging to exactly one Item.
type Variation struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	Size     string
	Quantity int
}

// VariationSpec carries the caller-controlled fields of a Variation. IDs and the
// owner back-reference are always assigned by the aggregate.
type VariationSpec struct {
	Size     string
	Quantity int
}

// NewItem constructs a new Item aggregate with a generated ID, fresh Variation IDs
// and the current UTC timestamp.
func NewItem(name ItemName, ref Reference, price decimal.Decimal, specs []VariationSpec) (*Item, error) {
	item := &Item{
		ID:        uuid.New(),
		Name:      name,
		Reference: ref,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
	if err := item.setVariations(specs); err != nil {
		return nil, err
	}
	return item, nil
}

// NewReplacement builds the aggregate that replaces existing on update. It keeps
// the identity and creation time of existing; every other field, including the
// whole variation set, comes from the arguments. Omitted variations are dropped.
func NewReplacement(existing *Item, name ItemName, ref Reference, price decimal.Decimal, specs []VariationSpec) (*Item, error) {
	if existing == nil {
		return nil, fmt.Errorf("existing item cannot be nil")
	}
	item := &Item{
		ID:        existing.ID,
		Name:      name,
		Reference: ref,
		Price:     price,
		CreatedAt: existing.CreatedAt,
	}
	if err := item.setVariations(specs); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *Item) setVariations(specs []VariationSpec) error {
	i.Variations = make([]Variation, 0, len(specs))
	for n, s := range specs {
		if s.Quantity < 0 {
			return fmt.Errorf("variation %d: quantity must not be negative", n)
		}
		i.Variations = append(i.Variations, Variation{
			ID:       uuid.New(),
			ItemID:   i.ID,
			Size:     s.Size,
			Quantity: s.Quantity,
		})
	}
	return nil
}

// TotalQuantity sums stock across all variations. Zero when none are loaded.
func (i *Item) TotalQuantity() int {
	total := 0
	for _, v := range i.Variations {
		total += v.Quantity
	}
	return total
}

// Clone returns a deep copy of the aggregate.
func (i *Item) Clone() *Item {
	c := *i
	if i.Variations != nil {
		c.Variations = make([]Variation, len(i.Variations))
		copy(c.Variations, i.Variations)
	}
	return &c
}
