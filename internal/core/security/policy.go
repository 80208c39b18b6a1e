package security

import (
	"context"
	"time"

	"milltrack/internal/core/apperror"
)

// RecordingPolicy defines rules for writing into accounting periods.
// Deployments differ in how strictly they lock down past months.
type RecordingPolicy interface {
	// CanRecord checks if a record can be created with given date
	CanRecord(ctx context.Context, date time.Time) error

	// CanModify checks if an existing record with given date can change
	CanModify(ctx context.Context, date time.Time) error

	// CanDelete checks if an existing record with given date can be removed
	CanDelete(ctx context.Context, date time.Time) error

	// GetClosedPeriod returns the date until which period is closed
	GetClosedPeriod(ctx context.Context) time.Time
}

// StrictPolicy forbids any changes to closed period.
// Used for regulatory compliance.
type StrictPolicy struct {
	closedUntil time.Time
}

// NewStrictPolicy creates policy that forbids changes before closedUntil.
func NewStrictPolicy(closedUntil time.Time) *StrictPolicy {
	return &StrictPolicy{closedUntil: closedUntil}
}

func (p *StrictPolicy) CanRecord(ctx context.Context, date time.Time) error {
	if date.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01"))
	}
	return nil
}

func (p *StrictPolicy) CanModify(ctx context.Context, date time.Time) error {
	return p.CanRecord(ctx, date)
}

func (p *StrictPolicy) CanDelete(ctx context.Context, date time.Time) error {
	return p.CanRecord(ctx, date)
}

func (p *StrictPolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// FlexiblePolicy allows backdated changes with warnings.
// Suitable for development and small businesses.
type FlexiblePolicy struct {
	warningThreshold time.Duration // Warn if older than this
	closedUntil      time.Time     // Hard limit
}

// NewFlexiblePolicy creates policy with soft warnings.
func NewFlexiblePolicy(warningThreshold time.Duration, closedUntil time.Time) *FlexiblePolicy {
	return &FlexiblePolicy{
		warningThreshold: warningThreshold,
		closedUntil:      closedUntil,
	}
}

func (p *FlexiblePolicy) CanRecord(ctx context.Context, date time.Time) error {
	if !p.closedUntil.IsZero() && date.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01"))
	}
	// Soft warning would be logged or returned as warning, not error
	return nil
}

func (p *FlexiblePolicy) CanModify(ctx context.Context, date time.Time) error {
	return p.CanRecord(ctx, date)
}

func (p *FlexiblePolicy) CanDelete(ctx context.Context, date time.Time) error {
	return p.CanRecord(ctx, date)
}

func (p *FlexiblePolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// IsBackdatedWarning checks if operation deserves a warning.
func (p *FlexiblePolicy) IsBackdatedWarning(date time.Time) bool {
	if p.warningThreshold == 0 {
		return false
	}
	return time.Since(date) > p.warningThreshold
}

// OpenPolicy allows all operations (for development/testing).
type OpenPolicy struct{}

func (OpenPolicy) CanRecord(ctx context.Context, date time.Time) error { return nil }
func (OpenPolicy) CanModify(ctx context.Context, date time.Time) error { return nil }
func (OpenPolicy) CanDelete(ctx context.Context, date time.Time) error { return nil }
func (OpenPolicy) GetClosedPeriod(ctx context.Context) time.Time       { return time.Time{} }
