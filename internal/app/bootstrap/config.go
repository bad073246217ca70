// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/auditlog"
	"github.com/dalemusser/propertyhub/internal/app/system/ordering"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for PropertyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, postgres_dsn, etc.
//   - Environment variables: PROPERTYHUB_MONGO_URI, PROPERTYHUB_POSTGRES_DSN, etc.
//   - Command-line flags: --mongo_uri, --postgres_dsn, etc.
var appConfigKeys = []config.AppKey{
	{Name: "postgres_dsn", Default: "postgres://localhost:5432/propertyhub?sslmode=disable", Desc: "PostgreSQL DSN for the identity store"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "propertyhub", Desc: "MongoDB database name"},

	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: "propertyhub", Desc: "Prefix for every Redis key"},
	{Name: "cache_ttl", Default: "5m", Desc: "Listing cache TTL"},

	{Name: "nats_url", Default: "", Desc: "NATS URL for listing events (blank disables publishing)"},

	// Image storage
	{Name: "media_endpoint", Default: "", Desc: "MinIO/S3 endpoint (blank disables image upload)"},
	{Name: "media_access_key", Default: "", Desc: "MinIO/S3 access key"},
	{Name: "media_secret_key", Default: "", Desc: "MinIO/S3 secret key"},
	{Name: "media_bucket", Default: "property-images", Desc: "Bucket for listing images"},
	{Name: "media_use_ssl", Default: false, Desc: "Use TLS for the media endpoint"},
	{Name: "media_public_url", Default: "", Desc: "Base URL images are served from"},

	// Tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for access and refresh tokens"},
	{Name: "jwt_issuer", Default: "propertyhub", Desc: "Token issuer claim"},
	{Name: "access_ttl", Default: "60m", Desc: "Access token lifetime"},
	{Name: "refresh_ttl", Default: "168h", Desc: "Refresh token lifetime"},

	// Signed email links
	{Name: "link_hash_key", Default: "dev-only-link-hash-key-0123456789ABCDEF", Desc: "HMAC key for password-reset and verification links"},
	{Name: "link_block_key", Default: "", Desc: "Optional AES key (16, 24 or 32 bytes) encrypting link tokens"},
	{Name: "link_ttl", Default: "24h", Desc: "Password-reset and verification link lifetime"},

	// Email/SMTP
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@propertyhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "PropertyHub", Desc: "From display name"},

	{Name: "site_name", Default: "PropertyHub", Desc: "Site name used in emails"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for email links"},

	// Listings
	{Name: "sort_field_policy", Default: string(ordering.Passthrough), Desc: "Unknown ordering fields: passthrough, reject or ignore"},
	{Name: "max_list_limit", Default: 0, Desc: "Upper bound on ?limit= (0 means no cap)"},
	{Name: "max_doc_depth", Default: models.DefaultMaxDocDepth, Desc: "Maximum nesting depth of extended-profile documents"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "reconcile_interval", Default: "15m", Desc: "How often properties_posted is recomputed for every user"},
	{Name: "staff_email", Default: "", Desc: "Email of a user promoted to staff on startup"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-record operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and multi-record operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for uploads and schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, PROPERTYHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PROPERTYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		PostgresDSN:   appValues.String("postgres_dsn"),
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		RedisPrefix:   appValues.String("redis_prefix"),
		CacheTTL:      appValues.Duration("cache_ttl", 5*time.Minute),

		NATSURL: appValues.String("nats_url"),

		MediaEndpoint:  appValues.String("media_endpoint"),
		MediaAccessKey: appValues.String("media_access_key"),
		MediaSecretKey: appValues.String("media_secret_key"),
		MediaBucket:    appValues.String("media_bucket"),
		MediaUseSSL:    appValues.Bool("media_use_ssl"),
		MediaPublicURL: appValues.String("media_public_url"),

		JWTSecret:  appValues.String("jwt_secret"),
		JWTIssuer:  appValues.String("jwt_issuer"),
		AccessTTL:  appValues.Duration("access_ttl", time.Hour),
		RefreshTTL: appValues.Duration("refresh_ttl", 7*24*time.Hour),

		LinkHashKey:  appValues.String("link_hash_key"),
		LinkBlockKey: appValues.String("link_block_key"),
		LinkTTL:      appValues.Duration("link_ttl", 24*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName: appValues.String("site_name"),
		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),

		SortFieldPolicy: appValues.String("sort_field_policy"),
		MaxListLimit:    appValues.Int("max_list_limit"),
		MaxDocDepth:     appValues.Int("max_doc_depth"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 15*time.Minute),
		StaffEmail:        appValues.String("staff_email"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Checks here catch misconfiguration before any backend is dialed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.PostgresDSN == "" {
		return fmt.Errorf("postgres_dsn is required")
	}
	if _, err := ordering.ParsePolicy(appCfg.SortFieldPolicy); err != nil {
		return fmt.Errorf("sort_field_policy: %w", err)
	}
	if len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 bytes")
	}
	if appCfg.MaxListLimit < 0 {
		return fmt.Errorf("max_list_limit must not be negative")
	}
	if appCfg.MaxDocDepth < 1 {
		return fmt.Errorf("max_doc_depth must be at least 1")
	}
	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch mode {
		case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be all, db, log or off", name)
		}
	}
	if appCfg.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile_interval must be positive")
	}
	if coreCfg.Env == "prod" && strings.HasPrefix(appCfg.JWTSecret, "dev-only") {
		return fmt.Errorf("jwt_secret must be changed in production")
	}
	return nil
}
