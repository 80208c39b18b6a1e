package ledger

import (
	"testing"

	"milltrack/internal/core/apperror"
)

func TestEvalRule_SaleQuantityCap(t *testing.T) {
	r := DefaultRegistry()

	rec := timelineRecord(1, ActivitySale, "2024-01-10", 50, "X1-010124")
	if err := r.EvalRule(TypeDailySales, rec); err != nil {
		t.Fatalf("quantity under cap: %v", err)
	}

	rec = timelineRecord(2, ActivitySale, "2024-01-10", 150000, "X1-010124")
	err := r.EvalRule(TypeDailySales, rec)
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("want AppError, got %v", err)
	}
	if appErr.Code != apperror.CodeValidation {
		t.Errorf("code\nwant: %s\ngot:  %s", apperror.CodeValidation, appErr.Code)
	}
	if appErr.Details["rule"] != "sale_quantity_cap" {
		t.Errorf("rule detail\nwant: sale_quantity_cap\ngot:  %v", appErr.Details["rule"])
	}
}

func TestEvalRule_ReturnReasonRequired(t *testing.T) {
	r := DefaultRegistry()

	rec := timelineRecord(1, ActivitySalesReturn, "2024-01-10", 5, "X1-R1")
	err := r.EvalRule(TypeDailySales, rec)
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("want AppError for empty note, got %v", err)
	}
	if appErr.Details["rule"] != "return_reason_required" {
		t.Errorf("rule detail\nwant: return_reason_required\ngot:  %v", appErr.Details["rule"])
	}

	rec.Note = "damaged in transit"
	if err := r.EvalRule(TypeDailySales, rec); err != nil {
		t.Fatalf("note present: %v", err)
	}
}

func TestEvalRule_ActivityWithoutRule(t *testing.T) {
	r := DefaultRegistry()
	rec := timelineRecord(1, ActivityReceive, "2024-01-10", 5, "")
	if err := r.EvalRule(TypeMaterialReceiveIssue, rec); err != nil {
		t.Fatalf("activity without rule should pass: %v", err)
	}
}

func TestCompileRule_Rejects(t *testing.T) {
	if _, err := compileRule("quantity >"); err == nil {
		t.Error("want compile error for malformed expression")
	}
	if _, err := compileRule("quantity"); err == nil {
		t.Error("want error for non-boolean expression")
	}
	if _, err := compileRule("unknown_var > 1.0"); err == nil {
		t.Error("want error for undeclared variable")
	}
}

func TestRuleActivation_NilExpiry(t *testing.T) {
	rec := timelineRecord(1, ActivitySale, "2024-01-10", 5, "X1-010124")
	vars := ruleActivation(rec)

	if vars["quantity"] != 5.0 {
		t.Errorf("quantity\nwant: 5\ngot:  %v", vars["quantity"])
	}
	if vars["batch"] != "X1-010124" {
		t.Errorf("batch\nwant: X1-010124\ngot:  %v", vars["batch"])
	}
	// nil expiry becomes the zero timestamp so rules can test for absence
	prog, err := compileRule(`expiry_date == timestamp("0001-01-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, _, err := prog.Eval(vars)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out.Value() != true {
		t.Error("zero-timestamp comparison should hold for nil expiry")
	}
}
