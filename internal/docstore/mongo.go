package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo maps each document collection onto a MongoDB collection with _id = document id.
// List returns documents in natural order.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	err = client.Ping(connectCtx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("mongo connected", "database", database)

	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	err := checkCollection(collection)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	doc := bson.M(cloneFields(fields))
	doc["_id"] = id

	_, err = m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

func (m *Mongo) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	err := checkCollection(collection)
	if err != nil {
		return err
	}
	err = checkID(id)
	if err != nil {
		return err
	}

	doc := bson.M(cloneFields(fields))
	doc["_id"] = id

	_, err = m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	err = m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return mongoDocument(raw), nil
}

func (m *Mongo) List(ctx context.Context, collection string) ([]*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}

	cursor, err := m.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var raws []bson.M
	err = cursor.All(ctx, &raws)
	if err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, mongoDocument(raw))
	}

	return docs, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func mongoDocument(raw bson.M) *Document {
	var id string
	switch v := raw["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	default:
		id = fmt.Sprint(v)
	}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = fromBSON(v)
	}
	return &Document{ID: id, Fields: fields}
}

// fromBSON converts driver-specific values into the plain types other backends return.
func fromBSON(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = fromBSON(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = fromBSON(inner)
		}
		return out
	default:
		return v
	}
}
