package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Gateway      GatewayConfig
	Mail         MailConfig
	Orders       OrdersConfig
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
	Env          string `envconfig:"AROMAS_APP_ENV" required:"true"`
	Port         string `envconfig:"AROMAS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AROMAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AROMAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AROMAS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AROMAS_DB_DSN"`
	Driver string `envconfig:"AROMAS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AROMAS_DB_HOST"`
	LegacyPort     int    `envconfig:"AROMAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AROMAS_DB_USER"`
	LegacyPassword string `envconfig:"AROMAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AROMAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AROMAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AROMAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AROMAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AROMAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AROMAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AROMAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AROMAS_REDIS_ADDR"`
	Password     string        `envconfig:"AROMAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AROMAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AROMAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AROMAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AROMAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AROMAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AROMAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AROMAS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AROMAS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AROMAS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AROMAS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AROMAS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"AROMAS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AROMAS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AROMAS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AROMAS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"AROMAS_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"AROMAS_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"AROMAS_PUBSUB_NOTIFICATION_TOPIC" default:"aromas-notification-events"`
	NotificationSubscription string `envconfig:"AROMAS_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AROMAS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AROMAS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AROMAS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GatewayConfig struct {
	Enabled   bool          `envconfig:"AROMAS_GATEWAY_ENABLED" default:"false"`
	BaseURL   string        `envconfig:"AROMAS_GATEWAY_BASE_URL"`
	KeyID     string        `envconfig:"AROMAS_GATEWAY_KEY_ID"`
	KeySecret string        `envconfig:"AROMAS_GATEWAY_KEY_SECRET"`
	Currency  string        `envconfig:"AROMAS_GATEWAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"AROMAS_GATEWAY_TIMEOUT" default:"10s"`

	CallbackRateLimit  int64         `envconfig:"AROMAS_GATEWAY_CALLBACK_RATE_LIMIT" default:"60"`
	CallbackRateWindow time.Duration `envconfig:"AROMAS_GATEWAY_CALLBACK_RATE_WINDOW" default:"1m"`
}

type MailConfig struct {
	FromEmail string `envconfig:"AROMAS_MAIL_FROM_EMAIL" default:"orders@aromasbyharnoor.com"`
	FromName  string `envconfig:"AROMAS_MAIL_FROM_NAME" default:"Aromas by HarNoor"`
}

type OrdersConfig struct {
	PaymentTTLHours int `envconfig:"AROMAS_ORDER_PAYMENT_TTL_HOURS" default:"24"`
}

// PaymentTTL returns how long an online order may stay unpaid before the
// expiry sweep releases its stock.
func (o OrdersConfig) PaymentTTL() time.Duration {
	if o.PaymentTTLHours <= 0 {
		return 0
	}
	return time.Duration(o.PaymentTTLHours) * time.Hour
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
