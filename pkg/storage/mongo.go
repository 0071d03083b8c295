package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "netdiagram"
	DefaultMongoCollection = "snapshots"
)

// MongoStore stores one document per snapshot, keyed by name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// snapshotDocument is the stored shape. Stats are kept beside the snapshot
// so that List can skip decoding it.
type snapshotDocument struct {
	Name      string            `bson:"_id"`
	Snapshot  topology.Snapshot `bson:"snapshot"`
	Stats     statsDocument     `bson:"stats"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type statsDocument struct {
	Devices     int `bson:"devices"`
	Groups      int `bson:"groups"`
	Zones       int `bson:"zones"`
	Connections int `bson:"connections"`
	Flows       int `bson:"flows"`
	Standalone  int `bson:"standalone"`
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func toDocument(name string, snap *topology.Snapshot, now time.Time) snapshotDocument {
	st := snap.Stats()
	return snapshotDocument{
		Name:     name,
		Snapshot: *snap,
		Stats: statsDocument{
			Devices:     st.Devices,
			Groups:      st.Groups,
			Zones:       st.Zones,
			Connections: st.Connections,
			Flows:       st.Flows,
			Standalone:  st.Standalone,
		},
		UpdatedAt: now.UTC(),
	}
}

func (d snapshotDocument) entry() Entry {
	return Entry{
		Name: d.Name,
		Stats: topology.Stats{
			Devices:     d.Stats.Devices,
			Groups:      d.Stats.Groups,
			Zones:       d.Stats.Zones,
			Connections: d.Stats.Connections,
			Flows:       d.Stats.Flows,
			Standalone:  d.Stats.Standalone,
		},
		UpdatedAt: d.UpdatedAt,
	}
}

// snapshot returns the stored snapshot with nil slices normalized.
func (d snapshotDocument) snapshot() *topology.Snapshot {
	s := d.Snapshot
	return topology.Merge(
		topology.TopologyFile{Devices: s.Devices, Groups: s.Groups, Zones: s.Zones},
		topology.ConnectionsFile{Connections: s.Connections},
		topology.FlowsFile{Flows: s.Flows},
	)
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, name string, snap *topology.Snapshot) error {
	c, err := prepare(name, snap)
	if err != nil {
		return err
	}
	doc := toDocument(name, c, time.Now())
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save snapshot %s", name)
	}
	return nil
}

// Load implements Store.
func (s *MongoStore) Load(ctx context.Context, name string) (*topology.Snapshot, error) {
	var doc snapshotDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load snapshot %s", name)
	}
	return doc.snapshot(), nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"snapshot": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var out []Entry
	for cur.Next(ctx) {
		var doc snapshotDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode snapshot")
		}
		out = append(out, doc.entry())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "iterate snapshots")
	}
	return out, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", name)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
