package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "perk_events"
	identityIndexName    = "events_identity"
)

// Mongo stores events in a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri, pings the server and ensures the unique identity
// index exists.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	coll := client.Database(database).Collection(Table)
	if _, err := coll.Indexes().CreateOne(ctx, identityIndex()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating identity index: %w", err)
	}

	return &Mongo{client: client, coll: coll}, nil
}

func (m *Mongo) UpsertEvents(ctx context.Context, rows []event.Event) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(rows))
	for i, row := range rows {
		row.DateTime = row.DateTime.UTC()
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(identityFilter(row)).
			SetReplacement(row).
			SetUpsert(true)
	}

	_, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("upserting %d events: %w", len(rows), err)
	}
	return len(rows), nil
}

func (m *Mongo) EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error) {
	filter := bson.M{"date_time": bson.M{"$gte": start.UTC(), "$lt": end.UTC()}}
	opts := options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}})

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer cursor.Close(ctx) // nolint:errcheck

	rows := make([]event.Event, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	for i := range rows {
		rows[i].DateTime = rows[i].DateTime.UTC()
	}
	sortByTime(rows)
	return rows, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func identityFilter(e event.Event) bson.D {
	return bson.D{
		{Key: "title", Value: e.Title},
		{Key: "date_time", Value: e.DateTime.UTC()},
		{Key: "location", Value: e.Location},
	}
}

func identityIndex() mongo.IndexModel {
	keys := bson.D{}
	for _, name := range ConflictColumns {
		keys = append(keys, bson.E{Key: name, Value: 1})
	}
	return mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(identityIndexName).SetUnique(true),
	}
}
