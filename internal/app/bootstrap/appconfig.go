// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct covers everything specific to PropertyHub.
type AppConfig struct {
	// Identity store (PostgreSQL)
	PostgresDSN string

	// Listing store (MongoDB)
	MongoURI      string
	MongoDatabase string

	// Redis: token revocation list, listing cache and login rate limits
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	CacheTTL      time.Duration

	// NATS connection for listing and counter-drift events. Empty disables
	// publishing.
	NATSURL string

	// Image storage (MinIO / S3). Empty endpoint disables uploads.
	MediaEndpoint  string
	MediaAccessKey string
	MediaSecretKey string
	MediaBucket    string
	MediaUseSSL    bool
	MediaPublicURL string

	// Access and refresh tokens
	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Password-reset and email-verification links
	LinkHashKey  string
	LinkBlockKey string
	LinkTTL      time.Duration

	// Email/SMTP. Empty host logs emails instead of sending them.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	SiteName string
	BaseURL  string // prefix for links in emails

	// Listing behaviour
	SortFieldPolicy string // passthrough | reject | ignore
	MaxListLimit    int
	MaxDocDepth     int

	// Counter reconciliation sweep interval
	ReconcileInterval time.Duration

	// Audit logging: "all" (MongoDB + zap), "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// StaffEmail is promoted to staff on startup when the account exists.
	StaffEmail string

	// Context timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
