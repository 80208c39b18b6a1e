package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorString(t *testing.T) {
	plain := NewValidation("date is required")
	if got := plain.Error(); got != "VALIDATION_ERROR: date is required" {
		t.Errorf("unexpected error string: %s", got)
	}

	caused := NewInternal(errors.New("connection refused"))
	want := "INTERNAL_ERROR: Internal server error (caused by: connection refused)"
	if got := caused.Error(); got != want {
		t.Errorf("unexpected error string with cause:\nwant: %s\ngot:  %s", want, got)
	}
}

func TestAppError_UnwrapChain(t *testing.T) {
	sentinel := errors.New("row missing")
	appErr := NewNotFound("Item", "ITM-2025-00001").WithCause(sentinel)

	if !errors.Is(appErr, sentinel) {
		t.Error("errors.Is must reach the cause through Unwrap")
	}

	// A fmt-wrapped AppError must still be extractable.
	wrapped := fmt.Errorf("load item: %w", appErr)
	extracted, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("AsAppError failed on a wrapped AppError")
	}
	if extracted.Code != CodeNotFound {
		t.Errorf("expected %s, got %s", CodeNotFound, extracted.Code)
	}

	if _, ok := AsAppError(errors.New("bare")); ok {
		t.Error("AsAppError must not match a bare error")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := NewValidation("quantity must be positive").
		WithDetail("field", "quantity").
		WithDetail("value", -1.5)

	if err.Details["field"] != "quantity" {
		t.Errorf("missing field detail: %v", err.Details)
	}
	if err.Details["value"] != -1.5 {
		t.Errorf("missing value detail: %v", err.Details)
	}
}

// The HTTP status mapping is the contract the error middleware renders;
// each factory must keep its code and status stable.
func TestFactoryStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("Supplier", "x"), CodeNotFound, http.StatusNotFound},
		{"item not found", NewItemNotFound("Wheat Grain"), CodeItemNotFound, http.StatusNotFound},
		{"expiry required", NewExpiryRequired("Receive"), CodeExpiryRequired, http.StatusUnprocessableEntity},
		{"expiry before date", NewExpiryBeforeDate("2025-01-01", "2025-02-01"), CodeExpiryBeforeDate, http.StatusUnprocessableEntity},
		{"batch required", NewBatchRequired("Return"), CodeBatchRequired, http.StatusUnprocessableEntity},
		{"batch format", NewInvalidBatchFormat("X-1", "ITM-2025-00002-"), CodeInvalidBatchFormat, http.StatusUnprocessableEntity},
		{"batch not available", NewBatchNotAvailable("ITM-2025-00002-010125", "Issue"), CodeBatchNotAvailable, http.StatusUnprocessableEntity},
		{"insufficient batch qty", NewInsufficientBatchQty("B-1", 10, 4), CodeInsufficientBatchQty, http.StatusUnprocessableEntity},
		{"insufficient stock", NewInsufficientStock("B-1", 10, 4), CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"period closed", NewPeriodClosed("2025-01"), CodePeriodClosed, http.StatusUnprocessableEntity},
		{"concurrent modification", NewConcurrentModification("LedgerRecord", "id"), CodeConcurrentModification, http.StatusConflict},
		{"unauthorized", NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("no permission"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("busy"), CodeConflict, http.StatusConflict},
		{"duplicate", NewDuplicate("Item", "name", "Wheat Grain"), CodeDuplicate, http.StatusConflict},
		{"idempotency conflict", NewIdempotencyConflict("key-1"), CodeIdempotency, http.StatusConflict},
		{"idempotency mismatch", NewIdempotencyMismatch("key-1"), CodeIdempotency, http.StatusConflict},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code: want %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("status: want %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	err := NewInternal(errors.New("password=hunter2 leaked in dsn"))
	if err.Message != "Internal server error" {
		t.Errorf("internal error message must be generic, got %q", err.Message)
	}
}

func TestCodePredicates(t *testing.T) {
	if !IsNotFound(NewNotFound("Unit", "kg")) {
		t.Error("IsNotFound must match CodeNotFound")
	}
	if IsNotFound(NewItemNotFound("Wheat Grain")) {
		t.Error("IsNotFound must not match the ledger item code")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound must not match a bare error")
	}
}
