package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "storefront"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"
	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvStripeSecretKey = "STOREFRONT_STRIPE_SECRET_KEY"
	EnvMetaPixelID     = "STOREFRONT_META_PIXEL_ID"
	EnvMetaCAPIToken   = "STOREFRONT_META_CAPI_TOKEN"
	EnvUtmifyAPIToken  = "STOREFRONT_UTMIFY_API_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
