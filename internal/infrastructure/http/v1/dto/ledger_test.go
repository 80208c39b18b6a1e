package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/internal/domain/ledger"
)

func TestCreateLedgerRecordRequest_ToEntity(t *testing.T) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	expiry := date.AddDate(0, 6, 0)

	req := CreateLedgerRecordRequest{
		Date:           date,
		Activity:       "Receive",
		ItemName:       "Premium Wheat Flour",
		Quantity:       types.NewQuantityFromFloat64(1800),
		Batch:          "ITM-2025-00002-100625",
		ExpiryDate:     &expiry,
		Note:           "Milling run 114",
		DocumentNumber: "PRI-2025-00042",
	}

	rec := req.ToEntity()

	assert.False(t, id.IsNil(rec.ID), "a fresh record must get an id")
	assert.Equal(t, 1, rec.Version)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, date, rec.Date)
	assert.Equal(t, "Receive", rec.Activity)
	assert.Equal(t, "Premium Wheat Flour", rec.ItemName)
	assert.Equal(t, types.Quantity(18000000), rec.Quantity)
	assert.Equal(t, "ITM-2025-00002-100625", rec.Batch)
	assert.Equal(t, &expiry, rec.ExpiryDate)
	assert.Equal(t, "Milling run 114", rec.Note)
	assert.Equal(t, "PRI-2025-00042", rec.DocumentNumber)

	// Items are resolved by the lifecycle manager, never taken from the client.
	assert.Empty(t, rec.ItemCode)
	assert.Empty(t, rec.Unit)
}

func TestCreateLedgerRecordRequest_NoteTruncated(t *testing.T) {
	req := CreateLedgerRecordRequest{
		Date:     time.Now().UTC(),
		Activity: "Receive",
		ItemName: "Wheat Bran",
		Quantity: types.NewQuantityFromFloat64(1),
		Note:     strings.Repeat("д", entity.NoteMaxLen+40),
	}

	rec := req.ToEntity()

	runes := []rune(rec.Note)
	require.Len(t, runes, entity.NoteMaxLen)
	assert.Equal(t, 'д', runes[len(runes)-1], "truncation must not split a multi-byte rune")
}

func TestUpdateLedgerRecordRequest_ToInput(t *testing.T) {
	recID := id.New()
	date := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	req := UpdateLedgerRecordRequest{
		Date:     date,
		Activity: "Issue",
		Quantity: types.NewQuantityFromFloat64(42.5),
		Batch:    "ITM-2025-00001-120625",
		Note:     "corrected weight",
		Version:  3,
	}

	in := req.ToInput(recID)

	assert.Equal(t, ledger.UpdateInput{
		ID:       recID,
		Version:  3,
		Date:     date,
		Activity: "Issue",
		Quantity: types.Quantity(425000),
		Batch:    "ITM-2025-00001-120625",
		Note:     "corrected weight",
	}, in)
}

func TestFromLedgerRecord(t *testing.T) {
	expiry := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

	rec := entity.NewLedgerRecord()
	rec.Date = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	rec.Activity = "Sale"
	rec.ItemName = "Premium Wheat Flour"
	rec.ItemCode = "ITM-2025-00002"
	rec.Batch = "ITM-2025-00002-100625"
	rec.Quantity = types.NewQuantityFromFloat64(420)
	rec.Unit = "kg"
	rec.StockAfter = types.NewQuantityFromFloat64(1080)
	rec.ExpiryDate = &expiry
	rec.DocumentNumber = "DSF-2025-00017"
	rec.CreatedBy = "a3f0"

	resp := FromLedgerRecord(ledger.TypeDailySales, &rec)

	assert.Equal(t, rec.ID.String(), resp.ID)
	assert.Equal(t, "daily_sales", resp.Ledger)
	assert.Equal(t, "Sale", resp.Activity)
	assert.Equal(t, "ITM-2025-00002", resp.ItemCode)
	assert.Equal(t, types.Quantity(4200000), resp.Quantity)
	assert.Equal(t, types.Quantity(10800000), resp.StockAfter)
	assert.Equal(t, &expiry, resp.ExpiryDate)
	assert.Equal(t, "DSF-2025-00017", resp.DocumentNumber)
	assert.Equal(t, "a3f0", resp.CreatedBy)
	assert.Equal(t, 1, resp.Version)
}

func TestFromBatchAvailability(t *testing.T) {
	expiry := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	resp := FromBatchAvailability(ledger.BatchAvailability{
		Batch:             "ITM-2025-00003-100625",
		OutputQuantity:    types.NewQuantityFromFloat64(900),
		ConsumedQuantity:  types.NewQuantityFromFloat64(315),
		AvailableQuantity: types.NewQuantityFromFloat64(585),
		SourceActivity:    "Transfer",
		IsAvailable:       true,
		ExpiryDate:        &expiry,
	})

	assert.Equal(t, "ITM-2025-00003-100625", resp.Batch)
	assert.Equal(t, types.Quantity(9000000), resp.OutputQuantity)
	assert.Equal(t, types.Quantity(3150000), resp.ConsumedQuantity)
	assert.Equal(t, types.Quantity(5850000), resp.AvailableQuantity)
	assert.Equal(t, "Transfer", resp.SourceActivity)
	assert.True(t, resp.IsAvailable)
	assert.Equal(t, &expiry, resp.ExpiryDate)
}
