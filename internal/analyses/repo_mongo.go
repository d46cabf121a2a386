package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollectionName = "analysis_records"

type mongoCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type mongoEntity struct {
	Text  string `bson:"text"`
	Label string `bson:"label"`
}

type mongoRecord struct {
	ID             string        `bson:"_id"`
	URL            string        `bson:"url"`
	RequesterEmail string        `bson:"requester_email"`
	Status         string        `bson:"status"`
	Entities       []mongoEntity `bson:"entities"`
	ErrorMessage   string        `bson:"error_message"`
	RequestID      string        `bson:"request_id"`
	CreatedAt      time.Time     `bson:"created_at"`
}

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	coll mongoCollection
}

// NewMongoRepo binds the repo to the analysis_records collection of db.
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(mongoCollectionName)}
}

// EnsureMongoIndexes creates the lookup index used by FindByURL.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(mongoCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "url", Value: 1},
			{Key: "status", Value: -1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("create analysis_records index: %w", err)
	}
	return nil
}

// FindByURL returns the preferred record for url. "SUCCESS" sorts above "FAILURE" descending.
func (r *MongoRepo) FindByURL(ctx context.Context, url string) (Record, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "status", Value: -1},
		{Key: "created_at", Value: -1},
	})
	var doc mongoRecord
	if err := r.coll.FindOne(ctx, bson.D{{Key: "url", Value: url}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return fromMongo(doc), nil
}

// Save inserts a new document keyed by the record id.
func (r *MongoRepo) Save(ctx context.Context, record Record) (string, error) {
	if err := validate(record); err != nil {
		return "", err
	}
	if _, err := r.coll.InsertOne(ctx, toMongo(record)); err != nil {
		return "", err
	}
	return record.ID, nil
}

func toMongo(rec Record) mongoRecord {
	entities := make([]mongoEntity, 0, len(rec.Entities))
	for _, e := range rec.Entities {
		entities = append(entities, mongoEntity{Text: e.Text, Label: e.Label})
	}
	return mongoRecord{
		ID:             rec.ID,
		URL:            rec.URL,
		RequesterEmail: rec.RequesterEmail,
		Status:         string(rec.Status),
		Entities:       entities,
		ErrorMessage:   rec.ErrorMessage,
		RequestID:      rec.RequestID,
		CreatedAt:      rec.CreatedAt.UTC(),
	}
}

func fromMongo(doc mongoRecord) Record {
	entities := make([]Entity, 0, len(doc.Entities))
	for _, e := range doc.Entities {
		entities = append(entities, Entity{Text: e.Text, Label: e.Label})
	}
	return Record{
		ID:             doc.ID,
		URL:            doc.URL,
		RequesterEmail: doc.RequesterEmail,
		Status:         Status(doc.Status),
		Entities:       entities,
		ErrorMessage:   doc.ErrorMessage,
		RequestID:      doc.RequestID,
		CreatedAt:      doc.CreatedAt.UTC(),
	}
}

var _ Repo = (*MongoRepo)(nil)
