// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/propertyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/indexes"
	"github.com/dalemusser/propertyhub/internal/app/system/mediastore"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/app/system/sqlschema"
	"github.com/dalemusser/waffle/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB dials every backend. Anything opened before a failure is
// closed again before the error is returned.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (deps DBDeps, err error) {
	deps = DBDeps{Metrics: metrics.New(), Background: &Background{}}
	defer func() {
		if err != nil {
			deps.close(context.Background(), logger)
			deps = DBDeps{}
		}
	}()

	deps.Postgres, err = sqlx.ConnectContext(ctx, "postgres", appCfg.PostgresDSN)
	if err != nil {
		return deps, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	deps.MongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return deps, fmt.Errorf("connect mongo: %w", err)
	}
	if err = deps.MongoClient.Ping(ctx, readpref.Primary()); err != nil {
		return deps, fmt.Errorf("ping mongo: %w", err)
	}
	deps.MongoDatabase = deps.MongoClient.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps.Redis = redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	if err = deps.Redis.Ping(ctx).Err(); err != nil {
		return deps, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))

	if appCfg.NATSURL != "" {
		if deps.Events, err = events.Connect(appCfg.NATSURL, logger); err != nil {
			return deps, fmt.Errorf("connect nats: %w", err)
		}
		logger.Info("connected to NATS", zap.String("url", appCfg.NATSURL))
	} else {
		logger.Warn("nats_url not set; listing events are discarded")
	}

	if appCfg.MediaEndpoint != "" {
		deps.Media, err = mediastore.New(mediastore.Config{
			Endpoint:  appCfg.MediaEndpoint,
			AccessKey: appCfg.MediaAccessKey,
			SecretKey: appCfg.MediaSecretKey,
			Bucket:    appCfg.MediaBucket,
			UseSSL:    appCfg.MediaUseSSL,
			PublicURL: appCfg.MediaPublicURL,
		}, logger)
		if err != nil {
			return deps, fmt.Errorf("media store: %w", err)
		}
	} else {
		logger.Warn("media_endpoint not set; image upload is disabled")
	}

	return deps, nil
}

// EnsureSchema creates the identity tables, the listing and audit indexes
// and the image bucket, then promotes the configured staff account.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := sqlschema.Ensure(ctx, deps.Postgres); err != nil {
		logger.Error("identity schema setup failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("listing index setup failed", zap.Error(err))
		return err
	}
	if err := audit.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("audit index setup failed", zap.Error(err))
		return err
	}
	if deps.Media != nil {
		if err := deps.Media.EnsureBucket(ctx); err != nil {
			logger.Error("media bucket setup failed", zap.Error(err))
			return err
		}
	}
	if appCfg.StaffEmail != "" {
		promoted, err := userstore.New(deps.Postgres).EnsureStaff(ctx, appCfg.StaffEmail)
		if err != nil {
			return fmt.Errorf("ensure staff: %w", err)
		}
		if promoted {
			logger.Info("staff user ensured", zap.String("email", appCfg.StaffEmail))
		} else {
			logger.Warn("staff_email has no account yet; register it and restart", zap.String("email", appCfg.StaffEmail))
		}
	}
	return nil
}

// close releases whatever deps holds. Errors are logged and the first one
// is returned.
func (deps DBDeps) close(ctx context.Context, logger *zap.Logger) error {
	var first error
	note := func(what string, err error) {
		if err == nil {
			return
		}
		logger.Error(what+" close failed", zap.Error(err))
		if first == nil {
			first = err
		}
	}
	if deps.Events != nil {
		note("NATS", deps.Events.Close())
	}
	if deps.Redis != nil {
		note("Redis", deps.Redis.Close())
	}
	if deps.MongoClient != nil {
		note("MongoDB", deps.MongoClient.Disconnect(ctx))
	}
	if deps.Postgres != nil {
		note("PostgreSQL", deps.Postgres.Close())
	}
	return first
}
