// Package item provides the Item catalog (Справочник "Номенклатура"):
// the raw materials and finished products the batch ledgers track.
package item

import (
	"context"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
)

// Kind splits the catalog into the two ledger families.
type Kind string

const (
	KindMaterial Kind = "material" // Сырьё
	KindProduct  Kind = "product"  // Готовая продукция
)

// Status is the business lifecycle, separate from the deletion mark.
// Inactive items stay visible in history but are hidden from the
// ledger resolver.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Item represents a material or product position.
type Item struct {
	entity.Catalog

	// Kind defines which ledger family records against this item
	Kind Kind `db:"kind" json:"kind"`

	// UnitID is the reference to the unit of measure
	UnitID *string `db:"unit_id" json:"unitId,omitempty"`

	// Status controls resolver visibility
	Status Status `db:"status" json:"status"`

	// ShelfLifeDays is a hint for expiry entry; zero means not tracked
	ShelfLifeDays int `db:"shelf_life_days" json:"shelfLifeDays"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewItem creates a new Item with required fields.
func NewItem(code, name string, kind Kind) *Item {
	return &Item{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
		Status:  StatusActive,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidKind(i.Kind) {
		return apperror.NewValidation("invalid item kind").
			WithDetail("field", "kind").
			WithDetail("value", string(i.Kind))
	}

	if !isValidStatus(i.Status) {
		return apperror.NewValidation("invalid item status").
			WithDetail("field", "status").
			WithDetail("value", string(i.Status))
	}

	if i.ShelfLifeDays < 0 {
		return apperror.NewValidation("shelf life cannot be negative").
			WithDetail("field", "shelfLifeDays")
	}

	return nil
}

// IsActive reports whether the resolver may hand this item to the ledgers.
func (i *Item) IsActive() bool {
	return i.Status == StatusActive && !i.DeletionMark
}

// --- Validation Helpers ---

func isValidKind(k Kind) bool {
	switch k {
	case KindMaterial, KindProduct:
		return true
	}
	return false
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}
