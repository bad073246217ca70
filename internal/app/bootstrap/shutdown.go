// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers, drains the email queue, then closes
// every backend client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Background != nil && deps.Background.Reconciler != nil {
		deps.Background.Reconciler.Stop()
	}
	if deps.Background != nil && deps.Background.Mailer != nil {
		if err := deps.Background.Mailer.Close(ctx); err != nil {
			logger.Warn("pending email not delivered before shutdown", zap.Error(err))
		}
	}
	logger.Info("closing backend connections")
	return deps.close(ctx, logger)
}
