package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps the Store contract onto MongoDB collections. Merge-write is
// an upserted $set, which Mongo applies atomically per document.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore instantiates the adapter over a connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromBSON(id, raw), nil
}

func (s *MongoStore) MergeWrite(ctx context.Context, collection, id string, fields Document) error {
	update := bson.M{"$set": bson.M(fields)}
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	return id, s.MergeWrite(ctx, collection, id, doc)
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}

	opts := options.Find()
	if q.OrderBy != "" {
		order := 1
		if q.Descending {
			order = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: order}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		id, _ := raw["_id"].(string)
		result = append(result, fromBSON(id, raw))
	}
	return result, cursor.Err()
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func fromBSON(id string, raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	doc["id"] = id
	return doc
}
