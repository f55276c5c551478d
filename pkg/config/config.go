package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Meta     MetaConfig
	Utmify   UtmifyConfig
	Exchange ExchangeConfig
	Hotmart  HotmartConfig
	CORS     CORSConfig
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
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STOREFRONT_STRIPE_SECRET_KEY" required:"true"`
	Env           string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
	Currency      string `envconfig:"STOREFRONT_STRIPE_CURRENCY" default:"eur"`
	ReturnURLBase string `envconfig:"STOREFRONT_STRIPE_RETURN_URL" default:"http://localhost:3000"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MetaConfig struct {
	PixelID     string `envconfig:"STOREFRONT_META_PIXEL_ID"`
	AccessToken string `envconfig:"STOREFRONT_META_CAPI_TOKEN"`
	GraphURL    string `envconfig:"STOREFRONT_META_GRAPH_URL" default:"https://graph.facebook.com/v19.0"`
}

// Configured reports whether the conversions sink credentials are present.
func (m MetaConfig) Configured() bool {
	return strings.TrimSpace(m.PixelID) != "" && strings.TrimSpace(m.AccessToken) != ""
}

type UtmifyConfig struct {
	APIToken        string `envconfig:"STOREFRONT_UTMIFY_API_TOKEN"`
	BaseURL         string `envconfig:"STOREFRONT_UTMIFY_BASE_URL" default:"https://api.utmify.com.br"`
	BillingCurrency string `envconfig:"STOREFRONT_UTMIFY_BILLING_CURRENCY" default:"BRL"`
}

// Configured reports whether the attribution sink credential is present.
func (u UtmifyConfig) Configured() bool {
	return strings.TrimSpace(u.APIToken) != ""
}

type ExchangeConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_EXCHANGE_BASE_URL" default:"https://economia.awesomeapi.com.br"`
	FallbackRate float64       `envconfig:"STOREFRONT_EXCHANGE_FALLBACK_RATE" default:"6.0"`
	Timeout      time.Duration `envconfig:"STOREFRONT_EXCHANGE_TIMEOUT" default:"10s"`
}

type HotmartConfig struct {
	Hottok   string        `envconfig:"STOREFRONT_HOTMART_HOTTOK"`
	GuardTTL time.Duration `envconfig:"STOREFRONT_HOTMART_GUARD_TTL" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
