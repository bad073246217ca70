// Package listingcache is a read-through Redis cache in front of the
// listing store. Only FindByID is cached; every write through the cache
// evicts the affected id and bumps its generation, and a fill is dropped
// when the generation moved while the backend was being read.
package listingcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Backend is the listing store being cached.
type Backend interface {
	Insert(ctx context.Context, p *models.Property) (primitive.ObjectID, error)
	Replace(ctx context.Context, id primitive.ObjectID, p models.Property) error
	SetImage(ctx context.Context, id primitive.ObjectID, url string, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	FindAll(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]models.Property, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	CountByOwner(ctx context.Context) (map[string]int64, error)
}

// Store wraps a Backend. Methods not overridden here go straight to it.
type Store struct {
	Backend
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// New returns a caching decorator. A ttl <= 0 defaults to five minutes.
func New(backend Backend, client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{Backend: backend, client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// genTTL bounds how long a generation counter outlives its last write.
// It only needs to exceed the longest backend read.
const genTTL = time.Hour

// fillScript sets KEYS[1] to ARGV[1] only while KEYS[2] still holds the
// generation ARGV[2] read before the backend lookup.
var fillScript = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

func (s *Store) key(id primitive.ObjectID) string {
	return fmt.Sprintf("%s:property:%s", s.prefix, id.Hex())
}

func (s *Store) genKey(id primitive.ObjectID) string {
	return fmt.Sprintf("%s:property-gen:%s", s.prefix, id.Hex())
}

// FindByID serves from Redis when possible. Cache errors fall back to the
// backend. Missing documents are not cached.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	switch {
	case err == nil:
		var p models.Property
		if uerr := bson.Unmarshal(b, &p); uerr == nil {
			return &p, nil
		}
		s.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("listing cache read failed", zap.String("id", id.Hex()), zap.Error(err))
	}

	gen, gerr := s.client.Get(ctx, s.genKey(id)).Result()
	switch {
	case errors.Is(gerr, redis.Nil):
		gen = "0"
	case gerr != nil:
		// Without a generation the fill cannot be checked, so skip it.
		return s.Backend.FindByID(ctx, id)
	}

	p, err := s.Backend.FindByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	s.fill(ctx, id, gen, p)
	return p, nil
}

func (s *Store) fill(ctx context.Context, id primitive.ObjectID, gen string, p *models.Property) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return
	}
	keys := []string{s.key(id), s.genKey(id)}
	if err := fillScript.Run(ctx, s.client, keys, raw, gen, s.ttl.Milliseconds()).Err(); err != nil {
		s.logger.Warn("listing cache write failed", zap.String("id", id.Hex()), zap.Error(err))
	}
}

// Replace writes through and evicts.
func (s *Store) Replace(ctx context.Context, id primitive.ObjectID, p models.Property) error {
	err := s.Backend.Replace(ctx, id, p)
	s.evict(ctx, id)
	return err
}

// SetImage writes through and evicts.
func (s *Store) SetImage(ctx context.Context, id primitive.ObjectID, url string, at time.Time) error {
	err := s.Backend.SetImage(ctx, id, url, at)
	s.evict(ctx, id)
	return err
}

// Delete writes through and evicts.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ok, err := s.Backend.Delete(ctx, id)
	s.evict(ctx, id)
	return ok, err
}

func (s *Store) evict(ctx context.Context, id primitive.ObjectID) {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.genKey(id))
		pipe.Expire(ctx, s.genKey(id), genTTL)
		pipe.Del(ctx, s.key(id))
		return nil
	})
	if err != nil {
		s.logger.Warn("listing cache evict failed", zap.String("id", id.Hex()), zap.Error(err))
	}
}
