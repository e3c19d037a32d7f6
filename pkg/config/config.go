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
	Paystack     PaystackConfig
	Geocoder     GeocoderConfig
	Cache        CacheConfig
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
	Env          string `envconfig:"VETLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"VETLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VETLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VETLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VETLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VETLINK_DB_DSN"`
	Driver string `envconfig:"VETLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VETLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"VETLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VETLINK_DB_USER"`
	LegacyPassword string `envconfig:"VETLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"VETLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"VETLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VETLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VETLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VETLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VETLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VETLINK_REDIS_URL"`
	Address      string        `envconfig:"VETLINK_REDIS_ADDR"`
	Password     string        `envconfig:"VETLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"VETLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VETLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VETLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VETLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VETLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VETLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was provided. The cache layer
// falls back to its in-process store when redis is absent.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"VETLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VETLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VETLINK_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PaystackConfig struct {
	BaseURL     string        `envconfig:"VETLINK_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Secret      string        `envconfig:"VETLINK_PAYSTACK_SECRET" required:"true"`
	CallbackURL string        `envconfig:"VETLINK_PAYSTACK_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"VETLINK_PAYSTACK_TIMEOUT" default:"15s"`
}

type GeocoderConfig struct {
	APIKey  string        `envconfig:"VETLINK_GEOCODER_API_KEY"`
	BaseURL string        `envconfig:"VETLINK_GEOCODER_BASE_URL" default:"https://maps.googleapis.com/maps/api/geocode"`
	Timeout time.Duration `envconfig:"VETLINK_GEOCODER_TIMEOUT" default:"10s"`
}

type CacheConfig struct {
	DefaultTTL   time.Duration `envconfig:"VETLINK_CACHE_DEFAULT_TTL" default:"60s"`
	DiscoveryTTL time.Duration `envconfig:"VETLINK_CACHE_DISCOVERY_TTL" default:"120s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VETLINK_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"VETLINK_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VETLINK_AUTO_MIGRATE" default:"false"`
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
