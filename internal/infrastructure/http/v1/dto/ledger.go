package dto

import (
	"time"

	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/internal/domain/ledger"
)

// --- Request DTOs ---

// CreateLedgerRecordRequest is the request body for recording a ledger entry.
// Batch is required only for manual-batch activities; DocumentNumber is
// auto-generated when blank.
type CreateLedgerRecordRequest struct {
	Date           time.Time      `json:"date" binding:"required"`
	Activity       string         `json:"activity" binding:"required"`
	ItemName       string         `json:"itemName" binding:"required"`
	Quantity       types.Quantity `json:"quantity" binding:"required"`
	Batch          string         `json:"batch"`
	ExpiryDate     *time.Time     `json:"expiryDate"`
	Note           string         `json:"note"`
	DocumentNumber string         `json:"documentNumber"`
}

// ToEntity converts DTO to a fresh ledger record.
func (r *CreateLedgerRecordRequest) ToEntity() *entity.LedgerRecord {
	rec := entity.NewLedgerRecord()
	rec.Date = r.Date
	rec.Activity = r.Activity
	rec.ItemName = r.ItemName
	rec.Quantity = r.Quantity
	rec.Batch = r.Batch
	rec.ExpiryDate = r.ExpiryDate
	rec.DocumentNumber = r.DocumentNumber
	rec.SetNote(r.Note)
	return &rec
}

// UpdateLedgerRecordRequest is the request body for editing a ledger entry.
// Item identity and unit are immutable; only the fields below may change.
type UpdateLedgerRecordRequest struct {
	Date       time.Time      `json:"date" binding:"required"`
	Activity   string         `json:"activity" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	Batch      string         `json:"batch"`
	ExpiryDate *time.Time     `json:"expiryDate"`
	Note       string         `json:"note"`
	Version    int            `json:"version" binding:"required"`
}

// ToInput converts DTO to the service update input.
func (r *UpdateLedgerRecordRequest) ToInput(recID id.ID) ledger.UpdateInput {
	return ledger.UpdateInput{
		ID:         recID,
		Version:    r.Version,
		Date:       r.Date,
		Activity:   r.Activity,
		Quantity:   r.Quantity,
		Batch:      r.Batch,
		ExpiryDate: r.ExpiryDate,
		Note:       r.Note,
	}
}

// --- Response DTOs ---

// LedgerRecordResponse represents a ledger record in API responses.
type LedgerRecordResponse struct {
	ID             string         `json:"id"`
	Ledger         string         `json:"ledger"`
	Date           time.Time      `json:"date"`
	Activity       string         `json:"activity"`
	ItemName       string         `json:"itemName"`
	ItemCode       string         `json:"itemCode"`
	Batch          string         `json:"batch"`
	Quantity       types.Quantity `json:"quantity"`
	Unit           string         `json:"unit"`
	StockAfter     types.Quantity `json:"stockAfter"`
	ExpiryDate     *time.Time     `json:"expiryDate,omitempty"`
	Note           string         `json:"note,omitempty"`
	DocumentNumber string         `json:"documentNumber"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	CreatedBy      string         `json:"createdBy,omitempty"`
	UpdatedBy      string         `json:"updatedBy,omitempty"`
}

// FromLedgerRecord converts entity to response DTO.
func FromLedgerRecord(ledgerType ledger.Type, rec *entity.LedgerRecord) *LedgerRecordResponse {
	return &LedgerRecordResponse{
		ID:             rec.ID.String(),
		Ledger:         string(ledgerType),
		Date:           rec.Date,
		Activity:       rec.Activity,
		ItemName:       rec.ItemName,
		ItemCode:       rec.ItemCode,
		Batch:          rec.Batch,
		Quantity:       rec.Quantity,
		Unit:           rec.Unit,
		StockAfter:     rec.StockAfter,
		ExpiryDate:     rec.ExpiryDate,
		Note:           rec.Note,
		DocumentNumber: rec.DocumentNumber,
		Version:        rec.Version,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		CreatedBy:      rec.CreatedBy,
		UpdatedBy:      rec.UpdatedBy,
	}
}

// BatchAvailabilityResponse represents one upstream batch offered to a
// consuming activity. Depleted batches are listed with isAvailable false.
type BatchAvailabilityResponse struct {
	Batch             string         `json:"batch"`
	OutputQuantity    types.Quantity `json:"outputQuantity"`
	ConsumedQuantity  types.Quantity `json:"consumedQuantity"`
	AvailableQuantity types.Quantity `json:"availableQuantity"`
	SourceActivity    string         `json:"sourceActivity"`
	IsAvailable       bool           `json:"isAvailable"`
	ExpiryDate        *time.Time     `json:"expiryDate,omitempty"`
}

// FromBatchAvailability converts domain availability to response DTO.
func FromBatchAvailability(b ledger.BatchAvailability) BatchAvailabilityResponse {
	return BatchAvailabilityResponse{
		Batch:             b.Batch,
		OutputQuantity:    b.OutputQuantity,
		ConsumedQuantity:  b.ConsumedQuantity,
		AvailableQuantity: b.AvailableQuantity,
		SourceActivity:    b.SourceActivity,
		IsAvailable:       b.IsAvailable,
		ExpiryDate:        b.ExpiryDate,
	}
}

// BatchAvailabilityListResponse represents the batch picker payload.
type BatchAvailabilityListResponse struct {
	Ledger   string                      `json:"ledger"`
	Item     string                      `json:"item"`
	Activity string                      `json:"activity"`
	Batches  []BatchAvailabilityResponse `json:"batches"`
}

// BatchStockResponse represents a point stock lookup for one batch.
type BatchStockResponse struct {
	Ledger string         `json:"ledger"`
	Batch  string         `json:"batch"`
	Stock  types.Quantity `json:"stock"`
}

// LedgerInfoResponse describes one registered ledger: its activities and
// their recording constraints, for building entry forms.
type LedgerInfoResponse struct {
	Ledger     string                 `json:"ledger"`
	Prefix     string                 `json:"prefix"`
	Activities []ActivityInfoResponse `json:"activities"`
}

// ActivityInfoResponse describes one activity of a ledger.
type ActivityInfoResponse struct {
	Name           string `json:"name"`
	Direction      string `json:"direction"`
	ManualBatch    bool   `json:"manualBatch"`
	RequiresExpiry bool   `json:"requiresExpiry"`
	HasUpstream    bool   `json:"hasUpstream"`
}
