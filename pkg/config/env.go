package config

// EnvPrefix is intentionally empty because every variable carries the full
// AROMAS_ name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv       = "AROMAS_APP_ENV"
	EnvPort         = "AROMAS_APP_PORT"
	EnvLogLevel     = "AROMAS_LOG_LEVEL"
	EnvLogWarnStack = "AROMAS_LOG_WARN_STACK"

	EnvDBDSN     = "AROMAS_DB_DSN"
	EnvDBDriver  = "AROMAS_DB_DRIVER"
	EnvDBHost    = "AROMAS_DB_HOST"
	EnvDBPort    = "AROMAS_DB_PORT"
	EnvDBUser    = "AROMAS_DB_USER"
	EnvDBPass    = "AROMAS_DB_PASSWORD"
	EnvDBName    = "AROMAS_DB_NAME"
	EnvDBSSLMode = "AROMAS_DB_SSLMODE"

	EnvRedisURL = "AROMAS_REDIS_URL"

	EnvJWTSecret  = "AROMAS_JWT_SECRET"
	EnvJWTIssuer  = "AROMAS_JWT_ISSUER"
	EnvJWTExpMins = "AROMAS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "AROMAS_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic      = "AROMAS_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "AROMAS_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationSub  = "AROMAS_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubNotificationTopc = "AROMAS_PUBSUB_NOTIFICATION_TOPIC"

	EnvGatewayEnabled   = "AROMAS_GATEWAY_ENABLED"
	EnvGatewayBaseURL   = "AROMAS_GATEWAY_BASE_URL"
	EnvGatewayKeyID     = "AROMAS_GATEWAY_KEY_ID"
	EnvGatewayKeySecret = "AROMAS_GATEWAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
