// Package listings is the mediator between the HTTP features, the listing
// store (MongoDB) and the identity store (PostgreSQL).
//
// It owns the authorization rules for listing writes, the contact snapshot
// taken at creation, the visibility of owner fields, and the cross-store
// bookkeeping of the owner's properties_posted counter.
//
// Every mutation is two-phase: the listing document is written first, then
// the owner's counter is adjusted. The counter write is never allowed to
// fail the request. When it fails the service logs the drift, counts it in
// propertyhub_counter_drift_total and publishes a listings.counter.drift
// event so the reconciler can re-sync that owner.
package listings

import (
	"context"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/app/system/ordering"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListingStore is the document store holding listings.
type ListingStore interface {
	Insert(ctx context.Context, p *models.Property) (primitive.ObjectID, error)
	Replace(ctx context.Context, id primitive.ObjectID, p models.Property) error
	SetImage(ctx context.Context, id primitive.ObjectID, url string, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	FindAll(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]models.Property, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// IdentityStore is the slice of the identity store the mediator writes to.
type IdentityStore interface {
	IncrementStat(ctx context.Context, userID, field string, delta int) error
}

// Config tunes the mediator.
type Config struct {
	// SortPolicy decides what happens to ordering fields outside the whitelist.
	SortPolicy ordering.Policy
	// MaxLimit caps the limit a caller may request. Zero means no cap.
	MaxLimit int64
}

// Service implements the listing operations.
type Service struct {
	listings ListingStore
	identity IdentityStore
	events   events.Publisher
	metrics  *metrics.Metrics
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// New wires a Service. pub and m may be nil.
func New(listings ListingStore, identity IdentityStore, pub events.Publisher, m *metrics.Metrics, cfg Config, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SortPolicy == "" {
		cfg.SortPolicy = ordering.Passthrough
	}
	return &Service{
		listings: listings,
		identity: identity,
		events:   pub,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// adjustCounter is phase two of a mutation. Failures are recorded and
// published but never returned.
func (s *Service) adjustCounter(ctx context.Context, op, userID, propertyID string, delta int) {
	if userID == "" {
		return
	}
	err := s.identity.IncrementStat(ctx, userID, models.StatPropertiesPosted, delta)
	if err == nil {
		return
	}

	s.logger.Error("listing counter update failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.String("property_id", propertyID),
		zap.Int("delta", delta),
		zap.Error(err))
	if s.metrics != nil {
		s.metrics.CounterDrift.WithLabelValues(op).Inc()
	}
	ev := events.CounterDrift{
		Op:         op,
		UserID:     userID,
		Field:      models.StatPropertiesPosted,
		Delta:      delta,
		PropertyID: propertyID,
		Error:      err.Error(),
		At:         s.now(),
	}
	if perr := s.events.Publish(ctx, events.SubjectCounterDrift, ev); perr != nil {
		s.logger.Warn("publish counter drift failed", zap.String("user_id", userID), zap.Error(perr))
	}
}

// published records a successful listing write and announces it.
func (s *Service) published(ctx context.Context, op, subject string, p *models.Property, actor *models.User) {
	if s.metrics != nil {
		s.metrics.ListingMutations.WithLabelValues(op).Inc()
	}
	ev := events.ListingEvent{
		PropertyID: p.ID.Hex(),
		OwnerID:    p.OwnerID,
		ActorID:    actor.ID,
		At:         s.now(),
	}
	if err := s.events.Publish(ctx, subject, ev); err != nil {
		s.logger.Warn("publish listing event failed", zap.String("subject", subject), zap.Error(err))
	}
}

// parseID maps a malformed id to NotFound, the same answer as a missing one.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}
