package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

// Discount identifies which pricing rule produced an effective price.
type Discount string

const (
	DiscountNone     Discount = "none"
	DiscountQuantity Discount = "quantity"
	DiscountCalendar Discount = "calendar"
)

// Stock tiers are strict lower bounds: exactly 5 or 10 units earn nothing from that tier.
const (
	lowStockThreshold  = 5
	highStockThreshold = 10

	calendarStartHour = 12 // inclusive
	calendarEndHour   = 17 // exclusive
)

var (
	lowStockFactor  = decimal.RequireFromString("0.90")
	highStockFactor = decimal.RequireFromString("0.80")
	calendarFactor  = decimal.RequireFromString("0.50")
)

// ApplyPricing returns a copy of item whose Price is the effective price at now.
// The input item is never modified.
//
// The stock tier and the Monday-afternoon rule are both evaluated against the
// same list price and the lower result wins, so only the single largest discount
// is ever applied. A nil item returns nil.
func ApplyPricing(item *models.Item, now time.Time) *models.Item {
	if item == nil {
		return nil
	}
	priced := item.Clone()
	priced.Price, _ = EffectivePrice(item, now)
	return priced
}

// EffectivePrice computes the displayed price for item at now and reports which
// rule produced it. When both rules land on the same price the quantity rule is
// reported.
func EffectivePrice(item *models.Item, now time.Time) (decimal.Decimal, Discount) {
	byQuantity := quantityPrice(item.Price, item.TotalQuantity())
	byCalendar := calendarPrice(item.Price, now)
	effective := decimal.Min(byQuantity, byCalendar)

	switch {
	case effective.Equal(item.Price):
		return effective, DiscountNone
	case effective.Equal(byQuantity):
		return effective, DiscountQuantity
	default:
		return effective, DiscountCalendar
	}
}

// quantityPrice applies the tiered stock discount to price.
func quantityPrice(price decimal.Decimal, totalQuantity int) decimal.Decimal {
	switch {
	case totalQuantity > highStockThreshold:
		return price.Mul(highStockFactor)
	case totalQuantity > lowStockThreshold:
		return price.Mul(lowStockFactor)
	default:
		return price
	}
}

// calendarPrice applies the Monday [12:00, 17:00) discount to price, using the
// wall clock of now's location.
func calendarPrice(price decimal.Decimal, now time.Time) decimal.Decimal {
	if now.Weekday() != time.Monday {
		return price
	}
	if h := now.Hour(); h < calendarStartHour || h >= calendarEndHour {
		return price
	}
	return price.Mul(calendarFactor)
}
