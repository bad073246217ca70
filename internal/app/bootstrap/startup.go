// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	propertystore "github.com/dalemusser/propertyhub/internal/app/store/properties"
	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"github.com/dalemusser/propertyhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies the configured timeouts and starts the counter reconciler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	// The reconciler reads the listing store directly, bypassing the cache.
	rec := workers.NewCounterReconciler(
		propertystore.New(deps.MongoDatabase),
		userstore.New(deps.Postgres),
		deps.Metrics,
		logger,
		appCfg.ReconcileInterval,
	)
	if deps.Events != nil {
		if err := rec.Subscribe(deps.Events.Conn()); err != nil {
			logger.Error("counter drift subscription failed", zap.Error(err))
			return err
		}
	}
	rec.Start()
	deps.Background.Reconciler = rec
	return nil
}
