package currency

import (
	"context"
	"testing"
)

func sp(s string) *string { return &s }

func TestNewCurrencyDefaults(t *testing.T) {
	c := NewCurrency("USD", "Доллар США", sp("USD"), sp("$"))

	if c.DecimalPlaces != 2 {
		t.Errorf("decimal places = %d, want 2", c.DecimalPlaces)
	}
	if c.IsBase {
		t.Error("new currency must not claim the base flag")
	}
}

func TestCurrencyValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Currency)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Currency) {}},
		{
			name:    "nil iso code",
			mutate:  func(c *Currency) { c.ISOCode = nil },
			wantErr: true,
		},
		{
			name:    "lowercase iso code",
			mutate:  func(c *Currency) { c.ISOCode = sp("usd") },
			wantErr: true,
		},
		{
			name:    "two-letter iso code",
			mutate:  func(c *Currency) { c.ISOCode = sp("US") },
			wantErr: true,
		},
		{
			name:    "missing symbol",
			mutate:  func(c *Currency) { c.Symbol = sp("") },
			wantErr: true,
		},
		{
			name:    "negative decimal places",
			mutate:  func(c *Currency) { c.DecimalPlaces = -1 },
			wantErr: true,
		},
		{
			name:    "decimal places over limit",
			mutate:  func(c *Currency) { c.DecimalPlaces = 9 },
			wantErr: true,
		},
		{
			name:   "zero decimal places",
			mutate: func(c *Currency) { c.DecimalPlaces = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCurrency("EUR", "Евро", sp("EUR"), sp("€"))
			tt.mutate(c)

			err := c.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
