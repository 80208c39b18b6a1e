package entity

import (
	"context"

	"milltrack/internal/core/apperror"
)

// Catalog is the base type for reference data (Справочники).
// Examples: Items, Suppliers, Units, Currencies.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier (unique among live rows)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// ParentID for hierarchical catalogs (nullable)
	ParentID *string `db:"parent_id" json:"parentId,omitempty"`

	// IsFolder indicates if this is a group (folder) in hierarchy
	IsFolder bool `db:"is_folder" json:"isFolder"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Code is optional at creation: the before-create hooks number
	// blank codes from the catalog's sequence.

	return nil
}
