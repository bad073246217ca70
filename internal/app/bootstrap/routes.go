// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	accountsfeature "github.com/dalemusser/propertyhub/internal/app/features/accounts"
	favoritesfeature "github.com/dalemusser/propertyhub/internal/app/features/favorites"
	healthfeature "github.com/dalemusser/propertyhub/internal/app/features/health"
	propertiesfeature "github.com/dalemusser/propertyhub/internal/app/features/properties"
	statsfeature "github.com/dalemusser/propertyhub/internal/app/features/stats"
	usersfeature "github.com/dalemusser/propertyhub/internal/app/features/users"
	"github.com/dalemusser/propertyhub/internal/app/store/audit"
	favoritestore "github.com/dalemusser/propertyhub/internal/app/store/favorites"
	"github.com/dalemusser/propertyhub/internal/app/store/listingcache"
	propertystore "github.com/dalemusser/propertyhub/internal/app/store/properties"
	revocations "github.com/dalemusser/propertyhub/internal/app/store/revocations"
	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/auditlog"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/propertyhub/internal/app/system/mailer"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/app/system/ordering"
	"github.com/dalemusser/propertyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/propertyhub/internal/app/system/resettoken"
	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// handlers bundles the feature handlers mounted by newRouter.
type handlers struct {
	Accounts   *accountsfeature.Handler
	Properties *propertiesfeature.Handler
	Stats      *statsfeature.Handler
	Favorites  *favoritesfeature.Handler
	Users      *usersfeature.Handler
	Health     *healthfeature.Handler
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every store and service is built here
// from the shared clients in deps.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	issuer, err := tokens.NewIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.AccessTTL, appCfg.RefreshTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	links, err := resettoken.New([]byte(appCfg.LinkHashKey), []byte(appCfg.LinkBlockKey), appCfg.LinkTTL)
	if err != nil {
		logger.Error("link codec init failed", zap.Error(err))
		return nil, err
	}
	policy, err := ordering.ParsePolicy(appCfg.SortFieldPolicy)
	if err != nil {
		return nil, err
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if appCfg.MailSMTPHost != "" {
		m, err := mailer.New(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Password: appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		}, logger)
		if err != nil {
			logger.Error("mailer init failed", zap.Error(err))
			return nil, err
		}
		sender = m
	}

	var pub events.Publisher = events.Nop{}
	if deps.Events != nil {
		pub = deps.Events
	}

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	users := userstore.New(deps.Postgres)
	cache := listingcache.New(propertystore.New(deps.MongoDatabase), deps.Redis, appCfg.RedisPrefix, appCfg.CacheTTL, logger)
	svc := listings.New(cache, users, pub, deps.Metrics, listings.Config{
		SortPolicy: policy,
		MaxLimit:   int64(appCfg.MaxListLimit),
	}, logger)

	outbox := mailer.NewQueue(sender, 256, logger)
	if deps.Background != nil {
		deps.Background.Mailer = outbox
	}

	accounts := accountsfeature.NewHandler(users, issuer, revocations.New(deps.Redis, appCfg.RedisPrefix), links, outbox, logger)
	accounts.Limiter = ratelimit.NewLoginLimiterWith(
		ratelimit.NewRedis(deps.Redis, appCfg.RedisPrefix+":ratelimit:ip", 10, time.Minute),
		ratelimit.NewRedis(deps.Redis, appCfg.RedisPrefix+":ratelimit:email", 5, 5*time.Minute),
	)
	accounts.ResetLimiter = ratelimit.NewLoginLimiterWith(
		ratelimit.NewRedis(deps.Redis, appCfg.RedisPrefix+":ratelimit:reset-ip", 10, time.Minute),
		ratelimit.NewRedis(deps.Redis, appCfg.RedisPrefix+":ratelimit:reset-email", 3, 15*time.Minute),
	)
	accounts.Audit = auditLog
	accounts.SiteName = appCfg.SiteName
	accounts.BaseURL = appCfg.BaseURL
	accounts.MaxDocDepth = appCfg.MaxDocDepth

	usersHandler := usersfeature.NewHandler(users, logger)
	usersHandler.Audit = auditLog

	var images propertiesfeature.ImageStore
	if deps.Media != nil {
		images = deps.Media
	}

	h := handlers{
		Accounts:   accounts,
		Properties: propertiesfeature.NewHandler(svc, images, logger),
		Stats:      statsfeature.NewHandler(svc, logger),
		Favorites:  favoritesfeature.NewHandler(favoritestore.New(deps.Postgres), svc, logger),
		Users:      usersHandler,
		Health: healthfeature.NewHandler(map[string]healthfeature.Pinger{
			"postgres": healthfeature.PingFunc(deps.Postgres.PingContext),
			"mongo": healthfeature.PingFunc(func(ctx context.Context) error {
				return deps.MongoClient.Ping(ctx, readpref.Primary())
			}),
			"redis": healthfeature.PingFunc(func(ctx context.Context) error {
				return deps.Redis.Ping(ctx).Err()
			}),
		}, logger),
	}

	authn := auth.NewAuthenticator(issuer, userstore.NewFetcher(users), logger)
	return newRouter(h, authn, deps.Metrics), nil
}

// newRouter mounts the feature routers. Trailing slashes are stripped so
// "/properties/" and "/properties" reach the same handler.
func newRouter(h handlers, authn *auth.Authenticator, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(m.Middleware)

	// Health and metrics sit outside authentication.
	r.Mount("/health", healthfeature.Routes(h.Health))
	r.Handle("/metrics", m.Handler())

	r.Group(func(api chi.Router) {
		// Loads the current user from a bearer token when one is present.
		api.Use(authn.LoadUser)

		api.Mount("/properties", propertiesfeature.Routes(h.Properties))
		api.Mount("/stats", statsfeature.Routes(h.Stats))
		api.Mount("/favorites", favoritesfeature.Routes(h.Favorites))
		api.Mount("/users", usersfeature.Routes(h.Users))

		// Registration, login, tokens, profile and email links.
		api.Mount("/", accountsfeature.Routes(h.Accounts))
	})

	return r
}
