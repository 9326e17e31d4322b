package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewItem(t *testing.T) {
	name := ItemName("Test Item")
	ref := Reference("SKU-1")
	price := decimal.RequireFromString("19.99")
	specs := []VariationSpec{{Size: "S", Quantity: 2}, {Size: "M", Quantity: 3}}

	t.Run("returns item with non-zero ID", func(t *testing.T) {
		item, err := NewItem(name, ref, price, specs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.ID == uuid.Nil {
			t.Fatal("expected non-zero UUID for ID")
		}
	})

	t.Run("sets fields correctly", func(t *testing.T) {
		item, err := NewItem(name, ref, price, specs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Name != name || item.Reference != ref || !item.Price.Equal(price) {
			t.Fatalf("unexpected fields: %+v", item)
		}
	})

	t.Run("assigns variation ids and back-references", func(t *testing.T) {
		item, err := NewItem(name, ref, price, specs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(item.Variations) != 2 {
			t.Fatalf("expected 2 variations, got %d", len(item.Variations))
		}
		seen := map[uuid.UUID]bool{}
		for _, v := range item.Variations {
			if v.ID == uuid.Nil {
				t.Fatal("expected non-zero variation ID")
			}
			if v.ItemID != item.ID {
				t.Fatalf("variation ItemID %v, want %v", v.ItemID, item.ID)
			}
			if seen[v.ID] {
				t.Fatal("duplicate variation ID")
			}
			seen[v.ID] = true
		}
	})

	t.Run("sets CreatedAt to approximately now UTC", func(t *testing.T) {
		before := time.Now().UTC()
		item, err := NewItem(name, ref, price, nil)
		after := time.Now().UTC()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.CreatedAt.Before(before) || item.CreatedAt.After(after) {
			t.Fatalf("CreatedAt %v not between %v and %v", item.CreatedAt, before, after)
		}
	})

	t.Run("nil specs yields empty variations", func(t *testing.T) {
		item, err := NewItem(name, ref, price, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Variations == nil || len(item.Variations) != 0 {
			t.Fatalf("expected empty non-nil variations, got %#v", item.Variations)
		}
	})

	t.Run("negative quantity returns error", func(t *testing.T) {
		if _, err := NewItem(name, ref, price, []VariationSpec{{Size: "S", Quantity: -1}}); err == nil {
			t.Fatal("expected error for negative quantity")
		}
	})

	t.Run("generates unique IDs on each call", func(t *testing.T) {
		item1, _ := NewItem(name, ref, price, nil)
		item2, _ := NewItem(name, ref, price, nil)
		if item1.ID == item2.ID {
			t.Fatal("expected unique IDs, got identical")
		}
	})
}

func TestNewReplacement(t *testing.T) {
	existing, err := NewItem("Old", "OLD-1", decimal.NewFromInt(10), []VariationSpec{{Size: "L", Quantity: 4}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	repl, err := NewReplacement(existing, "New", "NEW-1", decimal.NewFromInt(12), []VariationSpec{{Size: "XL", Quantity: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repl.ID != existing.ID {
		t.Fatalf("replacement must keep id %v, got %v", existing.ID, repl.ID)
	}
	if !repl.CreatedAt.Equal(existing.CreatedAt) {
		t.Fatal("replacement must keep CreatedAt")
	}
	if len(repl.Variations) != 1 || repl.Variations[0].Size != "XL" {
		t.Fatalf("unexpected variations: %+v", repl.Variations)
	}
	if repl.Variations[0].ID == existing.Variations[0].ID {
		t.Fatal("replacement variations must get fresh ids")
	}
	if repl.Variations[0].ItemID != existing.ID {
		t.Fatal("replacement variations must point at the kept item id")
	}

	if _, err := NewReplacement(nil, "New", "NEW-1", decimal.NewFromInt(1), nil); err == nil {
		t.Fatal("expected error for nil existing item")
	}
}

func TestItem_TotalQuantity(t *testing.T) {
	item := &Item{Variations: []Variation{{Quantity: 3}, {Quantity: 0}, {Quantity: 5}}}
	if got := item.TotalQuantity(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	if got := (&Item{}).TotalQuantity(); got != 0 {
		t.Fatalf("expected 0 for unloaded variations, got %d", got)
	}
}

func TestItem_Clone(t *testing.T) {
	orig := &Item{
		ID:         uuid.New(),
		Price:      decimal.NewFromInt(100),
		Variations: []Variation{{Size: "S", Quantity: 1}},
	}
	c := orig.Clone()
	c.Price = decimal.NewFromInt(1)
	c.Variations[0].Quantity = 99

	if !orig.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatal("clone must not share price with original")
	}
	if orig.Variations[0].Quantity != 1 {
		t.Fatal("clone must not share variations backing array")
	}
}
