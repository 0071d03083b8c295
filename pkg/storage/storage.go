// Package storage keeps named topology snapshots.
//
// Only topology input is stored. Positions and selections are stripped on
// save, so a loaded snapshot is always laid out from scratch.
//
// Two backends are provided: [SQLiteStore] for a single machine and
// [MongoStore] for a shared server deployment.
package storage

import (
	"context"
	"time"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Store saves and loads named snapshots.
type Store interface {
	// Save stores snap under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, snap *topology.Snapshot) error

	// Load returns the snapshot stored under name. A missing name is a
	// SNAPSHOT_NOT_FOUND error.
	Load(ctx context.Context, name string) (*topology.Snapshot, error)

	// List returns every stored snapshot, ordered by name.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes the named snapshot. A missing name is a
	// SNAPSHOT_NOT_FOUND error.
	Delete(ctx context.Context, name string) error

	// Close releases the backend connection.
	Close() error
}

// Entry describes one stored snapshot.
type Entry struct {
	Name      string         `json:"name"`
	Stats     topology.Stats `json:"stats"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// prepare validates name and returns the copy of snap that gets stored.
func prepare(name string, snap *topology.Snapshot) (*topology.Snapshot, error) {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "snapshot is nil")
	}
	c := snap.Clone()
	c.ResetPositions()
	c.DeselectAll()
	return c, nil
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", name)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	Path       string
	URI        string
	Database   string
	Collection string
}

// Open returns the store named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		if cfg.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite path is required")
		}
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, MongoConfig{URI: cfg.URI, Database: cfg.Database, Collection: cfg.Collection})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend %q", cfg.Backend)
	}
}
