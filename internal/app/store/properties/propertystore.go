// internal/app/store/properties/propertystore.go
package propertystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by Replace when no document has the given id.
var ErrNotFound = errors.New("property not found")

// Store is the listing store. It owns no business rules: filters and sort
// documents are passed to MongoDB verbatim.
type Store struct {
	c *mongo.Collection
}

// New returns a store over the "properties" collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("properties")}
}

// Insert writes a new document and returns its id. A zero ID is replaced
// with a fresh ObjectID.
func (s *Store) Insert(ctx context.Context, p *models.Property) (primitive.ObjectID, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return primitive.NilObjectID, err
	}
	return p.ID, nil
}

// Replace overwrites the document with the given id.
// Returns ErrNotFound if no document matched.
func (s *Store) Replace(ctx context.Context, id primitive.ObjectID, p models.Property) error {
	p.ID = id
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImage updates only the image URL and updated_at of a document.
// Returns ErrNotFound if no document matched.
func (s *Store) SetImage(ctx context.Context, id primitive.ObjectID, url string, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"image": url, "updated_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document with the given id and reports whether one
// was removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// FindByID loads a document. Returns (nil, nil) when it does not exist.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var p models.Property
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindAll returns documents matching filter. sort may be nil; limit <= 0
// means no limit.
func (s *Store) FindAll(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]models.Property, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Property, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of documents matching filter (all when nil).
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

// CountByOwner groups listings by owner_id and returns owner → count.
// Documents without an owner are skipped.
func (s *Store) CountByOwner(ctx context.Context) (map[string]int64, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"owner_id": bson.M{"$nin": bson.A{nil, ""}}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": "$owner_id",
			"n":   bson.M{"$sum": 1},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Owner string `bson:"_id"`
			N     int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Owner] = row.N
	}
	return out, cur.Err()
}
