// Package services contains stateless domain services for the item bounded context:
// aggregate validation and the pricing engine. They operate purely on domain types
// and do no I/O.
package services

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

// Storage bounds: prices are NUMERIC(12,2), quantities INTEGER.
const (
	PriceScale  = 2
	MaxQuantity = math.MaxInt32
)

// MaxPrice is the exclusive upper bound on a price's magnitude.
var MaxPrice = decimal.New(1, 10)

// ValidateName enforces business rules for ItemName beyond the structural
// constraints enforced by the ItemName constructor (length 1–255).
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - No consecutive spaces
//   - Must not be only whitespace characters
func ValidateName(name models.ItemName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("item name must not be only whitespace")
	}

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("item name must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("item name must not contain control characters")
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("item name must not contain consecutive spaces")
	}

	return nil
}

// ValidateItem performs cross-field validation on a fully-constructed Item
// aggregate before it is persisted, whether freshly created or a replacement.
// Name problems are reported separately so callers can map them to
// ErrInvalidItemName.
func ValidateItem(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}

	if item.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}

	if item.Reference == "" {
		return fmt.Errorf("reference must be set")
	}

	if item.Price.IsZero() {
		return fmt.Errorf("price must not be zero")
	}

	if !item.Price.Equal(item.Price.Round(PriceScale)) {
		return fmt.Errorf("price must have at most %d decimal places", PriceScale)
	}

	if item.Price.Abs().GreaterThanOrEqual(MaxPrice) {
		return fmt.Errorf("price must be below %s in magnitude", MaxPrice)
	}

	for i, v := range item.Variations {
		if v.ID == uuid.Nil {
			return fmt.Errorf("variation %d: id must be set", i)
		}
		if v.ItemID != item.ID {
			return fmt.Errorf("variation %d: belongs to item %s, not %s", i, v.ItemID, item.ID)
		}
		if v.Quantity < 0 {
			return fmt.Errorf("variation %d: quantity must not be negative", i)
		}
		if v.Quantity > MaxQuantity {
			return fmt.Errorf("variation %d: quantity must not exceed %d", i, MaxQuantity)
		}
	}

	return nil
}
