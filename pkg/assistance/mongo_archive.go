package assistance

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gnssspoof/pkg/navdata"
)

// MongoSnapshotArchive stores each EphemerisSnapshot passed to Archive,
// keyed loosely by PRN and producing channel UID, so operators can later
// replay which external-source values a given alert was compared against.
// Document storage suits the ~45-field, occasionally-sparse Keplerian
// record better than a fixed SQL schema. Cache does not call Archive
// itself; snapshots reach the archive only through an explicit caller.
//
// The teacher's app/rtkrcv/rtkrcv.go gestures at this (a commented-out
// mongo.Connect block) without completing it; this finishes the wiring.
type MongoSnapshotArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSnapshotArchive connects to uri and binds to db.collection.
func NewMongoSnapshotArchive(ctx context.Context, uri, db, collection string) (*MongoSnapshotArchive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &MongoSnapshotArchive{
		client:     client,
		collection: client.Database(db).Collection(collection),
	}, nil
}

type archivedSnapshot struct {
	navdata.EphemerisSnapshot `bson:",inline"`
	ArchivedAt                time.Time `bson:"archived_at"`
}

// Archive records snap for later replay.
func (m *MongoSnapshotArchive) Archive(ctx context.Context, snap navdata.EphemerisSnapshot) error {
	_, err := m.collection.InsertOne(ctx, archivedSnapshot{
		EphemerisSnapshot: snap,
		ArchivedAt:         time.Now(),
	})
	return err
}

// Close disconnects the Mongo client.
func (m *MongoSnapshotArchive) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
