// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/mailer"
	"github.com/dalemusser/propertyhub/internal/app/system/mediastore"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/app/system/workers"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend clients shared by every request. They are
// created once in ConnectDB, used read-only by handlers, and closed in
// Shutdown.
type DBDeps struct {
	Postgres      *sqlx.DB
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client

	// Events is nil when nats_url is empty.
	Events *events.NATS
	// Media is nil when media_endpoint is empty.
	Media *mediastore.Store

	Metrics *metrics.Metrics

	// Background holds workers started in Startup so Shutdown can stop them.
	Background *Background
}

// Background tracks long-running workers.
type Background struct {
	Reconciler *workers.CounterReconciler
	// Mailer is the outgoing email queue created in BuildHandler.
	Mailer *mailer.Queue
}
