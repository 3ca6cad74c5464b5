package reporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Icon references used when no application icon is available.
const (
	// FallbackIcon replaces an icon whose lookup failed.
	FallbackIcon = "res://drawable/ic_app_fallback"

	// PlaceholderIcon is shown when there are no notifications at all.
	PlaceholderIcon = "res://drawable/ic_notifications_none"
)

// ErrIconNotFound is returned by resolvers that know nothing about a package.
var ErrIconNotFound = errors.New("icon not found")

// IconResolver looks up the icon for an application. hint is the icon
// reference captured with the notification and may be empty.
type IconResolver interface {
	Resolve(ctx context.Context, packageName, hint string) (string, error)
}

// MapIconResolver resolves icons from a fixed package-to-icon table and
// falls back to the captured hint.
type MapIconResolver map[string]string

// Resolve implements IconResolver.
func (m MapIconResolver) Resolve(_ context.Context, packageName, hint string) (string, error) {
	if icon, ok := m[packageName]; ok && icon != "" {
		return icon, nil
	}
	if hint != "" {
		return hint, nil
	}
	return "", fmt.Errorf("resolving icon for %s: %w", packageName, ErrIconNotFound)
}

// IconResolverFunc adapts a function to IconResolver.
type IconResolverFunc func(ctx context.Context, packageName, hint string) (string, error)

// Resolve implements IconResolver.
func (f IconResolverFunc) Resolve(ctx context.Context, packageName, hint string) (string, error) {
	return f(ctx, packageName, hint)
}

// CachingIconResolver memoizes successful lookups of another resolver.
// Failed lookups are not cached so a later attempt can succeed.
type CachingIconResolver struct {
	next  IconResolver
	cache *cache.Cache
}

// NewCachingIconResolver caches results of next for ttl.
func NewCachingIconResolver(next IconResolver, ttl time.Duration) *CachingIconResolver {
	return &CachingIconResolver{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Resolve implements IconResolver.
func (c *CachingIconResolver) Resolve(ctx context.Context, packageName, hint string) (string, error) {
	key := packageName + "\x00" + hint
	if icon, found := c.cache.Get(key); found {
		return icon.(string), nil
	}

	icon, err := c.next.Resolve(ctx, packageName, hint)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, icon, cache.DefaultExpiration)
	return icon, nil
}
