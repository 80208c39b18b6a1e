package ledger

import (
	"testing"
	"time"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
)

var timelineBase = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// timelineRecord builds a record with CreatedAt spaced by seq so the
// insertion-order tiebreak is deterministic.
func timelineRecord(seq int, activity, date string, quantity float64, batch string) *entity.LedgerRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	rec := entity.NewLedgerRecord()
	rec.Date = d
	rec.Activity = activity
	rec.ItemName = "Flour T55"
	rec.ItemCode = "X1"
	rec.Batch = batch
	rec.Quantity = types.NewQuantityFromFloat64(quantity)
	rec.CreatedAt = timelineBase.Add(time.Duration(seq) * time.Second)
	rec.UpdatedAt = rec.CreatedAt
	return &rec
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestFoldTimeline_RunningBalance(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()
	records := []*entity.LedgerRecord{
		timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124"),
		timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124"),
	}
	sortTimeline(records)
	steps := foldTimeline(cfg, records)

	if got := steps[0].running; got != qty(100) {
		t.Errorf("running after receive\nwant: %s\ngot:  %s", qty(100), got)
	}
	if got := steps[1].running; got != qty(70) {
		t.Errorf("running after issue\nwant: %s\ngot:  %s", qty(70), got)
	}
	if got := steps[1].prior; got != qty(100) {
		t.Errorf("prior before issue\nwant: %s\ngot:  %s", qty(100), got)
	}
}

func TestFoldTimeline_UnclampedRunningClampedStored(t *testing.T) {
	cfg := DailySalesConfig()
	records := []*entity.LedgerRecord{
		timelineRecord(1, ActivitySale, "2024-01-02", 30, "X1-010124"),
		timelineRecord(2, ActivitySale, "2024-01-03", 20, "X1-010124"),
	}
	sortTimeline(records)
	steps := foldTimeline(cfg, records)

	if got := steps[0].running; got != qty(-30) {
		t.Errorf("running carries negative\nwant: %s\ngot:  %s", qty(-30), got)
	}
	if got := steps[1].running; got != qty(-50) {
		t.Errorf("running accumulates\nwant: %s\ngot:  %s", qty(-50), got)
	}

	applyFold(steps, nil)
	for i, rec := range records {
		if rec.StockAfter != 0 {
			t.Errorf("record %d stored balance\nwant: 0\ngot:  %s", i, rec.StockAfter)
		}
	}
}

func TestSortTimeline_Tiebreaks(t *testing.T) {
	sameDay := []*entity.LedgerRecord{
		timelineRecord(3, ActivityIssue, "2024-01-01", 1, "X1-010124"),
		timelineRecord(1, ActivityReceive, "2024-01-01", 1, "X1-010124"),
		timelineRecord(2, ActivityIssue, "2024-01-01", 1, "X1-010124"),
	}
	sortTimeline(sameDay)

	for i, want := range []string{ActivityReceive, ActivityIssue, ActivityIssue} {
		if sameDay[i].Activity != want {
			t.Fatalf("position %d: want %s, got %s", i, want, sameDay[i].Activity)
		}
	}
	if !sameDay[0].CreatedAt.Before(sameDay[1].CreatedAt) {
		t.Error("expected insertion order within equal dates")
	}

	// equal dates and CreatedAt fall back to id ordering
	a := timelineRecord(1, ActivityReceive, "2024-01-01", 1, "X1-010124")
	b := timelineRecord(1, ActivityIssue, "2024-01-01", 1, "X1-010124")
	b.CreatedAt = a.CreatedAt
	records := []*entity.LedgerRecord{b, a}
	sortTimeline(records)
	first := records[0]
	sortTimeline(records)
	if records[0] != first {
		t.Error("id tiebreak is not stable")
	}
}

func TestValidateTimeline(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()

	tests := []struct {
		name          string
		records       []*entity.LedgerRecord
		allowDepleted bool
		wantCode      string
	}{
		{
			name: "covered issue passes",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124"),
				timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124"),
			},
			allowDepleted: true,
		},
		{
			name: "overdraw rejected",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124"),
				timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124"),
				timelineRecord(3, ActivityIssue, "2024-01-06", 80, "X1-010124"),
			},
			allowDepleted: true,
			wantCode:      apperror.CodeInsufficientStock,
		},
		{
			name: "depleted batch bypass",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityIssue, "2024-01-05", 30, "X1-010124"),
			},
			allowDepleted: true,
		},
		{
			name: "depleted batch strict",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityIssue, "2024-01-05", 30, "X1-010124"),
			},
			allowDepleted: false,
			wantCode:      apperror.CodeInsufficientStock,
		},
		{
			name: "backdated issue starves later one",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124"),
				timelineRecord(3, ActivityIssue, "2024-01-10", 100, "X1-010124"),
				timelineRecord(4, ActivityIssue, "2024-01-05", 50, "X1-010124"),
			},
			allowDepleted: true,
			wantCode:      apperror.CodeInsufficientStock,
		},
		{
			name: "increase below zero is not a violation",
			records: []*entity.LedgerRecord{
				timelineRecord(1, ActivityIssue, "2024-01-01", 30, "X1-010124"),
				timelineRecord(2, ActivityReceive, "2024-01-02", 10, "X1-010124"),
			},
			allowDepleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortTimeline(tt.records)
			steps := foldTimeline(cfg, tt.records)
			err := validateTimeline(cfg, steps, tt.allowDepleted)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := apperror.AsAppError(err)
			if !ok {
				t.Fatalf("want AppError %s, got %v", tt.wantCode, err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("error code\nwant: %s\ngot:  %s", tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestValidateTimeline_ReportsAvailableAtFailure(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()
	records := []*entity.LedgerRecord{
		timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124"),
		timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124"),
		timelineRecord(3, ActivityIssue, "2024-01-06", 80, "X1-010124"),
	}
	sortTimeline(records)
	err := validateTimeline(cfg, foldTimeline(cfg, records), true)

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("want AppError, got %v", err)
	}
	if got := appErr.Details["available"]; got != 70.0 {
		t.Errorf("available detail\nwant: 70\ngot:  %v", got)
	}
	if got := appErr.Details["requested"]; got != 80.0 {
		t.Errorf("requested detail\nwant: 80\ngot:  %v", got)
	}
}

func TestApplyFold_ReportsChangedOnly(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()
	receive := timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124")
	issue := timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124")
	receive.StockAfter = qty(100)
	issue.StockAfter = qty(70)

	pending := timelineRecord(3, ActivityIssue, "2024-01-03", 10, "X1-010124")
	records := []*entity.LedgerRecord{receive, issue, pending}
	sortTimeline(records)
	steps := foldTimeline(cfg, records)
	changed := applyFold(steps, pending)

	if pending.StockAfter != qty(90) {
		t.Errorf("pending stored balance\nwant: %s\ngot:  %s", qty(90), pending.StockAfter)
	}
	if len(changed) != 1 || changed[0] != issue {
		t.Fatalf("want only the downstream issue restamped, got %d records", len(changed))
	}
	if issue.StockAfter != qty(60) {
		t.Errorf("downstream stored balance\nwant: %s\ngot:  %s", qty(60), issue.StockAfter)
	}
}

func TestRefoldBatch_AfterDelete(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()
	issue := timelineRecord(2, ActivityIssue, "2024-01-05", 40, "X1-010124")
	issue.StockAfter = qty(60)

	// the receive that covered this issue was just deleted
	changed := refoldBatch(cfg, []*entity.LedgerRecord{issue})

	if len(changed) != 1 {
		t.Fatalf("want 1 changed record, got %d", len(changed))
	}
	if issue.StockAfter != 0 {
		t.Errorf("orphaned issue stored balance\nwant: 0\ngot:  %s", issue.StockAfter)
	}
}

func TestRefoldBatch_QuantityEditPropagates(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()
	receive := timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124")
	issue := timelineRecord(2, ActivityIssue, "2024-01-05", 30, "X1-010124")
	receive.StockAfter = qty(100)
	issue.StockAfter = qty(70)

	receive.Quantity = qty(50)
	changed := refoldBatch(cfg, []*entity.LedgerRecord{receive, issue})

	if len(changed) != 2 {
		t.Fatalf("want both records restamped, got %d", len(changed))
	}
	if receive.StockAfter != qty(50) || issue.StockAfter != qty(20) {
		t.Errorf("stored balances\nwant: 50, 20\ngot:  %s, %s", receive.StockAfter, issue.StockAfter)
	}
}

func TestRemoveReplaceRecord(t *testing.T) {
	a := timelineRecord(1, ActivityReceive, "2024-01-01", 100, "X1-010124")
	b := timelineRecord(2, ActivityIssue, "2024-01-02", 10, "X1-010124")

	out := removeRecord([]*entity.LedgerRecord{a, b}, a.ID)
	if len(out) != 1 || out[0] != b {
		t.Fatalf("removeRecord kept the wrong records: %v", out)
	}
	out = removeRecord([]*entity.LedgerRecord{b}, id.New())
	if len(out) != 1 {
		t.Fatal("removeRecord dropped an unrelated record")
	}

	edited := *b
	edited.Quantity = qty(99)
	replaced := replaceRecord([]*entity.LedgerRecord{a, b}, &edited)
	if len(replaced) != 2 || replaced[1] != &edited {
		t.Fatal("replaceRecord did not swap the edited record in place")
	}
}
