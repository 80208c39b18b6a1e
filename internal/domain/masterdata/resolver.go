// Package masterdata resolves item master data for the ledger engine.
// Ledger records denormalize the item's code and unit at write time, so
// every create path goes through the resolver; a small cache keeps the
// catalog out of the hot path.
package masterdata

import (
	"context"
	"strings"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/id"
	"milltrack/pkg/logger"
)

// ItemInfo is the slice of the item catalog the ledger engine needs.
type ItemInfo struct {
	ID   id.ID
	Code string
	Name string
	Unit string
	Kind string
}

// ItemReader loads item master data from the catalog store. A nil result
// with nil error means the item does not exist or is marked deleted.
type ItemReader interface {
	FindActiveByName(ctx context.Context, name string) (*ItemInfo, error)
}

// ItemCache holds resolved items between catalog edits. Keys are
// normalized lowercase names.
type ItemCache interface {
	GetItem(name string) (*ItemInfo, bool)
	PutItem(name string, info *ItemInfo)
	InvalidateItem(name string)
}

// Notifier broadcasts an item invalidation to the other app instances.
type Notifier interface {
	NotifyItemChanged(ctx context.Context, name string) error
}

// Resolver resolves items by display name, cache first. Cache and
// notifier are optional.
type Resolver struct {
	repo     ItemReader
	cache    ItemCache
	notifier Notifier
}

func NewResolver(repo ItemReader, cache ItemCache, notifier Notifier) *Resolver {
	return &Resolver{repo: repo, cache: cache, notifier: notifier}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the active item with the given name, case-insensitive.
// A missing or deleted item is an error: ledger records must not be
// created against items the catalog no longer vouches for.
func (r *Resolver) Resolve(ctx context.Context, name string) (*ItemInfo, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, apperror.NewValidation("item name is required")
	}

	if r.cache != nil {
		if info, ok := r.cache.GetItem(key); ok {
			return info, nil
		}
	}

	info, err := r.repo.FindActiveByName(ctx, key)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, apperror.NewItemNotFound(name)
	}

	if r.cache != nil {
		r.cache.PutItem(key, info)
	}
	return info, nil
}

// Invalidate drops the local cache entry and, best effort, tells the
// other instances to do the same. Called from the item catalog's
// after-write hooks.
func (r *Resolver) Invalidate(ctx context.Context, name string) {
	key := normalizeName(name)
	if key == "" {
		return
	}
	if r.cache != nil {
		r.cache.InvalidateItem(key)
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyItemChanged(ctx, key); err != nil {
			logger.Warn(ctx, "item invalidation broadcast failed", "item", key, "error", err)
		}
	}
}
