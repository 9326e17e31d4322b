package models

import (
	"fmt"
	"strings"
)

// ItemName is a value object representing a valid item display name.
// Encapsulates validation rules: 1 <= len(name) <= 255.
type ItemName string

// Reference is a value object for the catalog SKU/code of an item.
// Encapsulates validation rules: 1 <= len(ref) <= 64, no surrounding whitespace.
type Reference string

const (
	minItemNameLength  = 1
	maxItemNameLength  = 255
	minReferenceLength = 1
	maxReferenceLength = 64
)

// NewItemName constructs a valid ItemName or returns an error if constraints are violated.
func NewItemName(s string) (ItemName, error) {
	if len(s) < minItemNameLength {
		return "", fmt.Errorf("item name must be at least %d character", minItemNameLength)
	}
	if len(s) > maxItemNameLength {
		return "", fmt.Errorf("item name must not exceed %d characters", maxItemNameLength)
	}
	return ItemName(s), nil
}

// String returns the underlying string value.
func (n ItemName) String() string {
	return string(n)
}

// NewReference constructs a valid Reference or returns an error if constraints are violated.
func NewReference(s string) (Reference, error) {
	if s != strings.TrimSpace(s) {
		return "", fmt.Errorf("reference must not have leading or trailing whitespace")
	}
	if len(s) < minReferenceLength {
		return "", fmt.Errorf("reference must be at least %d character", minReferenceLength)
	}
	if len(s) > maxReferenceLength {
		return "", fmt.Errorf("reference must not exceed %d characters", maxReferenceLength)
	}
	return Reference(s), nil
}

// String returns the underlying string value.
func (r Reference) String() string {
	return string(r)
}
