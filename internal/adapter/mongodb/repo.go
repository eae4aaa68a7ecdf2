package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"projecttutor/backend/features/document"
)

const CollectionDocuments = "documents"

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Repo is the MongoDB document store. Documents are keyed by doc_id; the
// driver-assigned _id is never exposed.
type Repo struct {
	collection *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{collection: db.Collection(CollectionDocuments)}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doc_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *Repo) Save(ctx context.Context, doc *document.Document) error {
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*document.Document, error) {
	var doc document.Document
	err := r.collection.FindOne(ctx, bson.D{{Key: "doc_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, document.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Artifacts.EnsureMaps()
	return &doc, nil
}

func (r *Repo) List(ctx context.Context) ([]document.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.D{{Key: "chunks", Value: 0}, {Key: "artifacts", Value: 0}})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document.Document
	for cursor.Next(ctx) {
		var d document.Document
		if err := cursor.Decode(&d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, cursor.Err()
}

func (r *Repo) SetIndexed(ctx context.Context, id string, indexed bool) error {
	return r.set(ctx, id, bson.D{{Key: "indexed", Value: indexed}})
}

func (r *Repo) SetArtifact(ctx context.Context, id string, path []string, value any) error {
	field := "artifacts." + strings.Join(path, ".")
	return r.set(ctx, id, bson.D{{Key: field, Value: value}})
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "doc_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return document.ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{})
	return int(n), err
}

func (r *Repo) set(ctx context.Context, id string, fields bson.D) error {
	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "doc_id", Value: id}}, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return document.ErrNotFound
	}
	return nil
}
