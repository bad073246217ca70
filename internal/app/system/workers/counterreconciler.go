// internal/app/system/workers/counterreconciler.go
package workers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ListingCounter counts listings in the listing store.
type ListingCounter interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
	CountByOwner(ctx context.Context) (map[string]int64, error)
}

// StatStore reads identity counters and writes them conditionally.
type StatStore interface {
	GetStat(ctx context.Context, userID, field string) (int, error)
	StatSnapshot(ctx context.Context, field string) (map[string]int, error)
	CompareAndSetStat(ctx context.Context, userID, field string, observed, value int) (bool, error)
}

// resyncAttempts bounds the read-count-write retries for one user.
const resyncAttempts = 3

// CounterReconciler is a background worker that re-derives every user's
// properties_posted counter from the listing store. It runs a full sweep
// on an interval and re-syncs single users as drift events arrive.
type CounterReconciler struct {
	listings ListingCounter
	stats    StatStore
	metrics  *metrics.Metrics
	log      *zap.Logger
	interval time.Duration
	pending  chan string
	sub      *nats.Subscription
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCounterReconciler creates a new reconciler.
//
// Parameters:
//   - listings: the listing store (ground truth)
//   - stats: the identity store holding the counters
//   - m: metrics, may be nil
//   - logger: zap logger for logging
//   - interval: how often to run a full sweep (e.g., 15 minutes)
func NewCounterReconciler(listings ListingCounter, stats StatStore, m *metrics.Metrics, logger *zap.Logger, interval time.Duration) *CounterReconciler {
	return &CounterReconciler{
		listings: listings,
		stats:    stats,
		metrics:  m,
		log:      logger,
		interval: interval,
		pending:  make(chan string, 256),
		stopCh:   make(chan struct{}),
	}
}

// Subscribe listens for counter drift events on conn. Call before Start.
func (w *CounterReconciler) Subscribe(conn *nats.Conn) error {
	sub, err := conn.Subscribe(events.SubjectCounterDrift, func(msg *nats.Msg) {
		w.HandleDrift(msg.Data)
	})
	if err != nil {
		return err
	}
	w.sub = sub
	return nil
}

// HandleDrift queues the user named in a drift event for re-sync. When the
// queue is full the event is dropped and the next sweep fixes the counter.
func (w *CounterReconciler) HandleDrift(data []byte) {
	var ev events.CounterDrift
	if err := json.Unmarshal(data, &ev); err != nil || ev.UserID == "" {
		w.log.Warn("ignoring malformed counter drift event", zap.Error(err))
		return
	}
	select {
	case w.pending <- ev.UserID:
	default:
		w.log.Warn("reconcile queue full, deferring to next sweep", zap.String("user_id", ev.UserID))
	}
}

// Start begins the background loop.
func (w *CounterReconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("counter reconciler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CounterReconciler) Stop() {
	if w.sub != nil {
		_ = w.sub.Unsubscribe()
	}
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("counter reconciler stopped")
}

func (w *CounterReconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case userID := <-w.pending:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := w.ResyncUser(ctx, userID); err != nil {
				w.log.Error("counter re-sync failed", zap.String("user_id", userID), zap.Error(err))
			}
			cancel()
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if err := w.Sweep(ctx); err != nil {
				w.log.Error("counter sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// ResyncUser sets one user's properties_posted to their listing count. The
// write only applies if the counter has not moved since it was read; after
// repeated interference the user is left for the next sweep.
func (w *CounterReconciler) ResyncUser(ctx context.Context, userID string) error {
	for attempt := 0; attempt < resyncAttempts; attempt++ {
		observed, err := w.stats.GetStat(ctx, userID, models.StatPropertiesPosted)
		if err != nil {
			return err
		}
		n, err := w.listings.Count(ctx, bson.M{"owner_id": userID})
		if err != nil {
			return err
		}
		if int(n) == observed {
			return nil
		}
		ok, err := w.stats.CompareAndSetStat(ctx, userID, models.StatPropertiesPosted, observed, int(n))
		if err != nil {
			return err
		}
		if ok {
			w.reconciled(1)
			w.log.Info("counter re-synced", zap.String("user_id", userID),
				zap.Int("was", observed), zap.Int64("properties_posted", n))
			return nil
		}
	}
	w.log.Warn("counter kept changing, deferring to next sweep", zap.String("user_id", userID))
	return nil
}

// Sweep recomputes properties_posted for every user. Counters are read
// before listings are counted and each write is conditional on the value
// read, so an increment that lands mid-sweep is kept and the user is left
// for the next pass. Owners whose counter cannot be written (e.g. no
// identity row) are logged and skipped.
func (w *CounterReconciler) Sweep(ctx context.Context) error {
	observed, err := w.stats.StatSnapshot(ctx, models.StatPropertiesPosted)
	if err != nil {
		return err
	}
	counts, err := w.listings.CountByOwner(ctx)
	if err != nil {
		return err
	}

	want := make(map[string]int, len(counts)+len(observed))
	for userID := range observed {
		want[userID] = 0
	}
	for userID, n := range counts {
		want[userID] = int(n)
	}

	var applied, skipped int
	for userID, n := range want {
		was := observed[userID]
		if was == n {
			continue
		}
		ok, err := w.stats.CompareAndSetStat(ctx, userID, models.StatPropertiesPosted, was, n)
		if err != nil {
			w.log.Warn("counter sweep skipped user", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if !ok {
			skipped++
			continue
		}
		applied++
	}

	w.reconciled(float64(applied))
	w.log.Info("counter sweep finished",
		zap.Int("owners", len(counts)),
		zap.Int("corrected", applied),
		zap.Int("changed_during_sweep", skipped))
	return nil
}

func (w *CounterReconciler) reconciled(n float64) {
	if w.metrics != nil {
		w.metrics.Reconciled.Add(n)
	}
}
