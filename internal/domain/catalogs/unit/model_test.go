package unit

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"milltrack/internal/core/id"
)

func TestNewUnitDefaults(t *testing.T) {
	u := NewUnit("kg", "Килограмм", "кг", TypeWeight)

	if !u.IsBase {
		t.Error("new unit should default to base")
	}
	if !u.ConversionFactor.Equal(decimal.NewFromInt(1)) {
		t.Errorf("conversion factor = %s, want 1", u.ConversionFactor)
	}
	if id.IsNil(u.ID) {
		t.Error("id not generated")
	}
}

func TestUnitValidate(t *testing.T) {
	ctx := context.Background()
	base := "00000000-0000-0000-0000-000000000001"

	tests := []struct {
		name    string
		mutate  func(*Unit)
		wantErr bool
	}{
		{name: "valid", mutate: func(u *Unit) {}},
		{
			name:    "missing symbol",
			mutate:  func(u *Unit) { u.Symbol = "" },
			wantErr: true,
		},
		{
			name:    "unknown type",
			mutate:  func(u *Unit) { u.Type = UnitType("volume2") },
			wantErr: true,
		},
		{
			name:    "zero conversion factor",
			mutate:  func(u *Unit) { u.ConversionFactor = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "negative conversion factor",
			mutate:  func(u *Unit) { u.ConversionFactor = decimal.NewFromInt(-2) },
			wantErr: true,
		},
		{
			name: "derived unit marked base",
			mutate: func(u *Unit) {
				u.BaseUnitID = &base
				u.IsBase = true
			},
			wantErr: true,
		},
		{
			name: "derived unit",
			mutate: func(u *Unit) {
				u.BaseUnitID = &base
				u.IsBase = false
				u.ConversionFactor = decimal.RequireFromString("0.001")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUnit("g", "Грамм", "г", TypeWeight)
			tt.mutate(u)

			err := u.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
