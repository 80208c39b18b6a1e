// Package numerator holds the domain contract for record auto-numbering.
// The PostgreSQL implementation lives in infrastructure/numerator.
package numerator

import (
	"context"
	"time"
)

// Generator produces sequential record numbers.
//
// Implementations may obtain database connections from context using
// dbctx.GetPool or dbctx.GetTxManager.
type Generator interface {
	// GetNextNumber generates the next number for the sequence selected
	// by config and period. Pattern: PREFIX-YEAR-XXXXX (e.g., MRI-2026-00042).
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the sequence value directly. Seeding and
	// migrations use it to land the sequence past pre-existing codes.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
