package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "potluck"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "POTLUCK_DB_DSN"
	EnvDBHost = "POTLUCK_DB_HOST"
	EnvDBUser = "POTLUCK_DB_USER"
	EnvDBName = "POTLUCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Paystack     PaystackConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Reconcile    ReconcileConfig
	Commission   CommissionConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POTLUCK_APP_ENV" required:"true"`
	Port         string `envconfig:"POTLUCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POTLUCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POTLUCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"POTLUCK_DB_DSN"`
	Driver string `envconfig:"POTLUCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POTLUCK_DB_HOST"`
	LegacyPort     int    `envconfig:"POTLUCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POTLUCK_DB_USER"`
	LegacyPassword string `envconfig:"POTLUCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"POTLUCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"POTLUCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POTLUCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POTLUCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POTLUCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POTLUCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POTLUCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POTLUCK_REDIS_ADDR"`
	Password     string        `envconfig:"POTLUCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"POTLUCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POTLUCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POTLUCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POTLUCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POTLUCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POTLUCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaystackConfig struct {
	SecretKey     string        `envconfig:"POTLUCK_PAYSTACK_SECRET_KEY" required:"true"`
	WebhookSecret string        `envconfig:"POTLUCK_PAYSTACK_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"POTLUCK_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout       time.Duration `envconfig:"POTLUCK_PAYSTACK_TIMEOUT" default:"10s"`
}

// SigningSecret returns the webhook HMAC secret, falling back to the API
// secret key, which is what the provider signs with by default.
func (p PaystackConfig) SigningSecret() string {
	if secret := strings.TrimSpace(p.WebhookSecret); secret != "" {
		return secret
	}
	return strings.TrimSpace(p.SecretKey)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"POTLUCK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"POTLUCK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"POTLUCK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"POTLUCK_PUBSUB_NOTIFICATION_TOPIC" default:"potluck-notification-events"`
	NotificationSubscription string `envconfig:"POTLUCK_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type ReconcileConfig struct {
	QueueSize    int           `envconfig:"POTLUCK_RECONCILE_QUEUE_SIZE" default:"256"`
	Workers      int           `envconfig:"POTLUCK_RECONCILE_WORKERS" default:"4"`
	GuardTTL     time.Duration `envconfig:"POTLUCK_RECONCILE_GUARD_TTL" default:"720h"`
	DrainTimeout time.Duration `envconfig:"POTLUCK_RECONCILE_DRAIN_TIMEOUT" default:"30s"`
}

type CommissionConfig struct {
	// DefaultRate is a decimal fraction, e.g. "0.15" for a 15% platform cut.
	DefaultRate string `envconfig:"POTLUCK_COMMISSION_DEFAULT_RATE" default:"0.15"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"POTLUCK_CRON_INTERVAL" default:"10m"`
	LockTTL  time.Duration `envconfig:"POTLUCK_CRON_LOCK_TTL" default:"9m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"POTLUCK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
