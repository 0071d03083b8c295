package storage

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// SQLiteStore stores snapshots as JSON rows in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// ":memory:" opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open database")
	}
	// One connection keeps ":memory:" a single database and serializes
	// writers on disk.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "migrate database")
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		data JSON NOT NULL,
		device_count INTEGER NOT NULL DEFAULT 0,
		group_count INTEGER NOT NULL DEFAULT 0,
		zone_count INTEGER NOT NULL DEFAULT 0,
		connection_count INTEGER NOT NULL DEFAULT 0,
		flow_count INTEGER NOT NULL DEFAULT 0,
		standalone_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, name string, snap *topology.Snapshot) error {
	c, err := prepare(name, snap)
	if err != nil {
		return err
	}
	data, err := topology.MarshalJSON(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "encode snapshot %s", name)
	}
	st := c.Stats()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, data, device_count, group_count, zone_count,
			connection_count, flow_count, standalone_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			device_count = excluded.device_count,
			group_count = excluded.group_count,
			zone_count = excluded.zone_count,
			connection_count = excluded.connection_count,
			flow_count = excluded.flow_count,
			standalone_count = excluded.standalone_count,
			updated_at = excluded.updated_at
	`, name, string(data), st.Devices, st.Groups, st.Zones,
		st.Connections, st.Flows, st.Standalone, time.Now().UTC())
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save snapshot %s", name)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*topology.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load snapshot %s", name)
	}
	snap, err := topology.ReadSnapshot(bytes.NewReader([]byte(data)), topology.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return snap, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, device_count, group_count, zone_count, connection_count,
			flow_count, standalone_count, updated_at
		FROM snapshots
		ORDER BY name
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Stats.Devices, &e.Stats.Groups, &e.Stats.Zones,
			&e.Stats.Connections, &e.Stats.Flows, &e.Stats.Standalone, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan snapshot")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "iterate snapshots")
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(name)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
