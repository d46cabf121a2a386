package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	inserted []interface{}
	found    interface{}
	filter   interface{}
	insertEr error
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	f.filter = filter
	if f.found == nil {
		return mongo.NewSingleResultFromDocument(struct{}{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(f.found, nil, nil)
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertEr != nil {
		return nil, f.insertEr
	}
	f.inserted = append(f.inserted, document)
	return &mongo.InsertOneResult{}, nil
}

func TestMongoRepoSaveAndFind(t *testing.T) {
	coll := &fakeCollection{}
	repo := &MongoRepo{coll: coll}
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		ID:             "rec-1",
		URL:            "https://news.example/a",
		RequesterEmail: "alice@example.com",
		Status:         StatusSuccess,
		Entities:       []Entity{{Text: "Acme Corp", Label: "ORG"}},
		CreatedAt:      created,
	}

	if _, err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(coll.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(coll.inserted))
	}
	doc, ok := coll.inserted[0].(mongoRecord)
	if !ok || doc.Status != "SUCCESS" || doc.Entities[0].Label != "ORG" {
		t.Fatalf("unexpected document: %#v", coll.inserted[0])
	}

	coll.found = doc
	got, err := repo.FindByURL(context.Background(), rec.URL)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if got.ID != rec.ID || got.Status != StatusSuccess || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Entities) != 1 || got.Entities[0] != (Entity{Text: "Acme Corp", Label: "ORG"}) {
		t.Fatalf("unexpected entities: %+v", got.Entities)
	}
}

func TestMongoRepoNotFound(t *testing.T) {
	repo := &MongoRepo{coll: &fakeCollection{}}
	if _, err := repo.FindByURL(context.Background(), "https://missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMongoRepoSavePropagatesError(t *testing.T) {
	boom := errors.New("write concern")
	repo := &MongoRepo{coll: &fakeCollection{insertEr: boom}}
	_, err := repo.Save(context.Background(), Record{ID: "a", URL: "u", RequesterEmail: "e", Status: StatusFailure})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}
