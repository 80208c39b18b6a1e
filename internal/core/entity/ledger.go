// Package entity provides core domain entities.
package entity

import (
	"context"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
)

// ActivityDirection classifies a ledger activity by its effect on batch stock.
type ActivityDirection string

const (
	// DirectionIncrease raises batch stock (receive, production, return)
	DirectionIncrease ActivityDirection = "increase"
	// DirectionDecrease lowers batch stock (issue, sale, waste)
	DirectionDecrease ActivityDirection = "decrease"
)

// NoteMaxLen is the stored limit for ledger record notes, in runes.
// Longer notes are truncated silently.
const NoteMaxLen = 100

// LedgerRecord is one dated activity entry in a batch ledger.
// All ledger tables share this shape; the activity taxonomy and the
// upstream batch linkage differ per ledger and live in ledger.Config.
//
// StockAfter is a materialized running balance: for any batch the sequence
// of StockAfter values ordered by (date, created_at, id) equals the
// chronological fold of signed quantities, clamped at zero. It is restamped
// by the lifecycle manager whenever an earlier record of the same batch is
// inserted, edited or removed.
type LedgerRecord struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Date is the business timestamp of the transaction; never in the future
	Date time.Time `db:"date" json:"date"`

	// Activity is one of the ledger's fixed activity enumeration
	Activity string `db:"activity" json:"activity"`

	// ItemName is the display name the caller supplied
	ItemName string `db:"item_name" json:"itemName"`

	// ItemCode is the canonical code resolved at creation; immutable afterwards
	ItemCode string `db:"item_code" json:"itemCode"`

	// Batch identifies the stock-bearing lot this record belongs to
	Batch string `db:"batch" json:"batch"`

	// Quantity is always positive; direction comes from the activity
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Unit is copied from the resolved item at creation; immutable afterwards
	Unit string `db:"unit" json:"unit"`

	// StockAfter is the batch running balance as of and including this record
	StockAfter types.Quantity `db:"stock_after" json:"stockAfter"`

	// ExpiryDate is required for designated activities, >= Date when present
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	// DocumentNumber is auto-generated when blank; searched, not unique
	DocumentNumber string `db:"document_number" json:"documentNumber"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewLedgerRecord creates a record with generated ID and timestamps.
func NewLedgerRecord() LedgerRecord {
	now := time.Now().UTC()
	return LedgerRecord{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetNote stores the note truncated to NoteMaxLen runes.
func (r *LedgerRecord) SetNote(note string) {
	r.Note = TruncateNote(note)
}

// TruncateNote cuts a note to NoteMaxLen runes. Multi-byte text is counted
// in runes, not bytes, so UTF-8 content is never split mid-character.
func TruncateNote(note string) string {
	runes := []rune(note)
	if len(runes) <= NoteMaxLen {
		return note
	}
	return string(runes[:NoteMaxLen])
}

// Validate implements Validatable. DocumentNumber is not checked here: it
// can be auto-generated, so it is optional at creation but guaranteed by
// the lifecycle manager at save time.
func (r *LedgerRecord) Validate(ctx context.Context) error {
	if r.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if r.Date.After(time.Now().UTC()) {
		return apperror.NewValidation("date must not be in the future").
			WithDetail("field", "date").
			WithDetail("date", r.Date.Format(time.RFC3339))
	}
	if r.Activity == "" {
		return apperror.NewValidation("activity is required").
			WithDetail("field", "activity")
	}
	if r.ItemName == "" {
		return apperror.NewValidation("item name is required").
			WithDetail("field", "itemName")
	}
	if !r.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	return nil
}

// HasExpiry reports whether the record carries an expiry date.
func (r *LedgerRecord) HasExpiry() bool {
	return r.ExpiryDate != nil && !r.ExpiryDate.IsZero()
}
