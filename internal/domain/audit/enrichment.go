// Package audit stamps authorship fields on records from the caller's
// access scope.
package audit

import (
	"context"

	"milltrack/internal/core/security"
)

// StampCreated fills both authorship fields of a new record. When the
// context carries no user, the fields are left as they are, so records
// written by system jobs keep whatever the caller set.
func StampCreated(ctx context.Context, createdBy, updatedBy *string) {
	userID := security.GetScope(ctx).UserID
	if userID == "" {
		return
	}
	if createdBy != nil {
		*createdBy = userID
	}
	if updatedBy != nil {
		*updatedBy = userID
	}
}

// StampUpdated fills the updater field on an edit, leaving the original
// author intact.
func StampUpdated(ctx context.Context, updatedBy *string) {
	userID := security.GetScope(ctx).UserID
	if userID == "" || updatedBy == nil {
		return
	}
	*updatedBy = userID
}
