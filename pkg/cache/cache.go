// Package cache stores computed layouts and rendered artifacts.
//
// Everything the pipeline caches is a pure function of its inputs, so keys
// are content hashes: a layout is keyed by the topology hash plus the
// geometry, and an artifact by the layout hash plus the render options.
// Entries never need invalidating; they simply stop being asked for.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the API server
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Default TTLs per entry type.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key for a positioned snapshot.
	LayoutKey(topologyHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for one rendered output format.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the inputs besides the topology that change a layout.
type LayoutKeyOpts struct {
	GeometryHash string `json:"geometry"`
}

// ArtifactKeyOpts holds the inputs besides the layout that change an
// artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Style    string  `json:"style"`
	Flow     string  `json:"flow,omitempty"`
	Legend   bool    `json:"legend,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(topologyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", topologyHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
