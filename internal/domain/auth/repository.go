// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"

	"milltrack/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update writes login-tracking state with an optimistic version check.
	Update(ctx context.Context, user *User) error

	// LoadRoles loads user's roles.
	LoadRoles(ctx context.Context, userID id.ID) ([]Role, error)

	// LoadPermissions loads user's permissions, flattened across roles.
	LoadPermissions(ctx context.Context, userID id.ID) ([]string, error)

	// AssignRole grants a role to a user. Repeated grants are no-ops.
	AssignRole(ctx context.Context, userID, roleID id.ID, grantedBy id.ID) error

	// RevokeRole removes a role from a user.
	RevokeRole(ctx context.Context, userID, roleID id.ID) error

	// Exists checks if email is already taken.
	Exists(ctx context.Context, email string) (bool, error)
}

// RoleRepository defines role storage operations. Roles themselves are
// provisioned by the seeder; the service only reads them.
type RoleRepository interface {
	// GetByCode retrieves role by code.
	GetByCode(ctx context.Context, code string) (*Role, error)

	// List retrieves all roles.
	List(ctx context.Context) ([]Role, error)
}

// PermissionRepository defines permission storage operations.
type PermissionRepository interface {
	// List retrieves all permissions.
	List(ctx context.Context) ([]Permission, error)
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by its SHA256 digest.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a single token, recording the reason.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all live tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens removes expired and long-revoked tokens.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}
