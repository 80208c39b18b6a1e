// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"
	"strings"

	"milltrack/internal/core/apperror"
	appctx "milltrack/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	// CRUD permissions
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"

	// Admin permissions
	PermissionAdmin Permission = "admin"
	PermissionAudit Permission = "audit"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// AccessScope defines the boundaries of data visibility for current request.
// Used for authorization decisions and for consistent logging/audit context.
type AccessScope struct {
	// UserID is the authenticated user
	UserID string

	// IsAdmin bypasses permission checks
	IsAdmin bool

	// Permissions available to user, keyed by entity
	Permissions map[string][]Permission
}

// NewAccessScope creates AccessScope from context. The user's permission
// claims are strings of the form "entity:permission".
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	scope := &AccessScope{
		UserID:  user.UserID,
		IsAdmin: user.IsAdmin,
	}
	for _, claim := range user.Permissions {
		entity, perm, ok := strings.Cut(claim, ":")
		if !ok {
			continue
		}
		if scope.Permissions == nil {
			scope.Permissions = make(map[string][]Permission)
		}
		scope.Permissions[entity] = append(scope.Permissions[entity], Permission(perm))
	}
	return scope
}

// HasPermission checks if user has permission on entity.
func (s *AccessScope) HasPermission(entity string, perm Permission) bool {
	if s.IsAdmin {
		return true
	}
	if perms, ok := s.Permissions[entity]; ok {
		for _, p := range perms {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(entity string, perm Permission) error {
	if !s.HasPermission(entity, perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s on %s required", perm, entity),
		).WithDetail("entity", entity).WithDetail("permission", perm)
	}
	return nil
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
