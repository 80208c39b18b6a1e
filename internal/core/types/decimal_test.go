package types

import (
	"encoding/json"
	"testing"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", Quantity(0), "0.0000"},
		{"whole", Quantity(50000), "5.0000"},
		{"fraction", Quantity(12345), "1.2345"},
		{"sub-unit", Quantity(5), "0.0005"},
		{"negative sub-unit", Quantity(-5), "-0.0005"},
		{"negative", Quantity(-32500), "-3.2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Quantity
		wantErr bool
	}{
		{name: "number", in: `2.5`, want: 25000},
		{name: "integer", in: `7`, want: 70000},
		{name: "string", in: `"4.2"`, want: 42000},
		{name: "negative", in: `-3.25`, want: -32500},
		{name: "plus sign", in: `"+7"`, want: 70000},
		{name: "bare fraction", in: `".5"`, want: 5000},
		{name: "extra digits truncated", in: `1.23456`, want: 12345},
		{name: "null", in: `null`, want: 0},
		{name: "exponent falls back to float", in: `"1e3"`, want: 10000000},
		{name: "empty string", in: `""`, wantErr: true},
		{name: "garbage", in: `"abc"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.in), &q)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s, got %v", tt.in, q)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if q != tt.want {
				t.Errorf("unmarshal %s = %d, want %d", tt.in, q, tt.want)
			}
		})
	}
}

// Quantities go over the wire as plain JSON numbers with four digits, so
// clients never see the internal scaled integer.
func TestQuantityMarshalJSON(t *testing.T) {
	payload := struct {
		Quantity Quantity `json:"quantity"`
	}{Quantity: Quantity(12345)}

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"quantity":1.2345}` {
		t.Errorf("unexpected wire form: %s", b)
	}
}

func TestNewQuantityFromFloat64(t *testing.T) {
	if got := NewQuantityFromFloat64(2.34567); got != 23457 {
		t.Errorf("expected rounding to 23457, got %d", got)
	}
	if got := NewQuantityFromFloat64(1.5); got != 15000 {
		t.Errorf("expected 15000, got %d", got)
	}
	if got := NewQuantityFromFloat64(-0.25); got != -2500 {
		t.Errorf("expected -2500, got %d", got)
	}
}

func TestQuantityHelpers(t *testing.T) {
	q := Quantity(-15000)
	if !q.IsNegative() || q.IsPositive() || q.IsZero() {
		t.Error("sign predicates disagree for -1.5")
	}
	if q.Abs() != 15000 {
		t.Errorf("Abs() = %d", q.Abs())
	}
	if q.Neg() != 15000 {
		t.Errorf("Neg() = %d", q.Neg())
	}
	if q.Float64() != -1.5 {
		t.Errorf("Float64() = %v", q.Float64())
	}
	if q.Int64Scaled() != -15000 {
		t.Errorf("Int64Scaled() = %d", q.Int64Scaled())
	}
}
