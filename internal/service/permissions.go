package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/permissions"
)

const permTreeTTL = 5 * time.Minute

// PermissionStore defines the database methods needed to resolve a
// user's effective permission tree.
type PermissionStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetRole(ctx context.Context, id uuid.UUID) (database.Role, error)
	GetPermissionRegistry(ctx context.Context) (database.PermissionRegistry, error)
}

// TreeCache is the cache surface the resolver needs; satisfied by
// *cache.Cache.
type TreeCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PermissionResolver computes effective permission trees:
// registry shape → role defaults → per-user overrides, with a short
// cache in front since the tree is consulted on every gated request.
type PermissionResolver struct {
	store  PermissionStore
	cache  TreeCache
	logger *zap.Logger
}

func NewPermissionResolver(store PermissionStore, cache TreeCache, logger *zap.Logger) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionResolver{store: store, cache: cache, logger: logger}
}

func treeCacheKey(userID uuid.UUID) string {
	return "perm-tree:" + userID.String()
}

// EffectiveTree resolves the user's permission tree. Cache misses and
// cache errors both fall through to the database; the cache is an
// optimization, never the source of truth.
func (r *PermissionResolver) EffectiveTree(ctx context.Context, userID uuid.UUID) ([]permissions.Node, error) {
	if r.cache != nil {
		var cached []permissions.Node
		if hit, err := r.cache.GetJSON(ctx, treeCacheKey(userID), &cached); err == nil && hit {
			return cached, nil
		}
	}

	tree, err := r.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, treeCacheKey(userID), tree, permTreeTTL); err != nil {
			r.logger.Warn("cache permission tree", zap.Error(err))
		}
	}
	return tree, nil
}

func (r *PermissionResolver) resolve(ctx context.Context, userID uuid.UUID) ([]permissions.Node, error) {
	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	role, err := r.store.GetRole(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	registry, err := r.store.GetPermissionRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	var template, roleTree, overrides []permissions.Node
	if err := json.Unmarshal(registry.Tree, &template); err != nil {
		return nil, fmt.Errorf("registry tree: %w", err)
	}
	if len(role.Permissions) > 0 {
		if err := json.Unmarshal(role.Permissions, &roleTree); err != nil {
			return nil, fmt.Errorf("role tree: %w", err)
		}
	}
	if len(user.CustomPermissions) > 0 {
		if err := json.Unmarshal(user.CustomPermissions, &overrides); err != nil {
			return nil, fmt.Errorf("user overrides: %w", err)
		}
	}

	// Role defaults shaped by the registry, then user overrides on top.
	// A user with no recorded overrides inherits the role defaults
	// untouched; a recorded override set fully encodes the user's
	// granted nodes, so merging it against the default shape rebuilds
	// the edited tree exactly.
	defaults := permissions.Merge(template, roleTree)
	if len(overrides) == 0 {
		return defaults, nil
	}
	return permissions.Merge(defaults, overrides), nil
}

// Invalidate drops a user's cached tree after a role or override write.
func (r *PermissionResolver) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if r.cache == nil {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = treeCacheKey(id)
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("invalidate permission cache", zap.Error(err))
	}
}
