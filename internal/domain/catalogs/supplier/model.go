// Package supplier provides the Supplier catalog (Справочник "Поставщики"):
// the vendors raw materials are received from.
package supplier

import (
	"context"
	"regexp"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
)

// Pre-compiled regex patterns for validation
var (
	digitsOnlyRE = regexp.MustCompile(`^\d+$`)
	emailRE      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Status is the business lifecycle of a supplier.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Supplier represents a vendor of raw materials.
type Supplier struct {
	entity.Catalog

	// TaxID is the supplier's tax identification number
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is the delivery/legal address
	Address *string `db:"address" json:"address,omitempty"`

	// Status controls whether new receipts may reference the supplier
	Status Status `db:"status" json:"status"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
		Status:  StatusActive,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidStatus(s.Status) {
		return apperror.NewValidation("invalid supplier status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}

	// Tax ID validation (if provided)
	if s.TaxID != nil && *s.TaxID != "" {
		if err := validateTaxID(*s.TaxID); err != nil {
			return err
		}
	}

	// Email validation (if provided)
	if s.Email != nil && *s.Email != "" {
		if !emailRE.MatchString(*s.Email) {
			return apperror.NewValidation("invalid email format").
				WithDetail("field", "email").
				WithDetail("value", *s.Email)
		}
	}

	return nil
}

// IsActive reports whether the supplier accepts new business.
func (s *Supplier) IsActive() bool {
	return s.Status == StatusActive && !s.DeletionMark
}

// --- Validation Helpers ---

func isValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}

func validateTaxID(taxID string) error {
	if !digitsOnlyRE.MatchString(taxID) {
		return apperror.NewValidation("tax ID must contain only digits").
			WithDetail("field", "taxId").
			WithDetail("value", taxID)
	}
	if len(taxID) < 8 || len(taxID) > 15 {
		return apperror.NewValidation("tax ID must be 8 to 15 digits").
			WithDetail("field", "taxId").
			WithDetail("value", taxID)
	}
	return nil
}
