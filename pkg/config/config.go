package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SUPPLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "SUPPLY_APP_ENV"
	EnvPort         = "SUPPLY_APP_PORT"
	EnvDBDSN        = "SUPPLY_DB_DSN"
	EnvDBHost       = "SUPPLY_DB_HOST"
	EnvDBUser       = "SUPPLY_DB_USER"
	EnvDBName       = "SUPPLY_DB_NAME"
	EnvRedisURL     = "SUPPLY_REDIS_URL"
	EnvJWTSecret    = "SUPPLY_JWT_SECRET"
	EnvJWTIssuer    = "SUPPLY_JWT_ISSUER"
	EnvJWTExpMins   = "SUPPLY_JWT_EXPIRATION_MINUTES"
	EnvStripeAPIKey = "SUPPLY_STRIPE_API_KEY"
	EnvStripeEnv    = "SUPPLY_STRIPE_ENV"
	EnvStripeTO     = "SUPPLY_STRIPE_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Stripe  StripeConfig
	Metrics MetricsConfig
	CORS    CORSConfig
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
	Env          string `envconfig:"SUPPLY_APP_ENV" required:"true"`
	Port         string `envconfig:"SUPPLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUPPLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPPLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"SUPPLY_DB_DSN"`
	AutoMigrate bool   `envconfig:"SUPPLY_DB_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"SUPPLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SUPPLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUPPLY_DB_USER"`
	LegacyPassword string `envconfig:"SUPPLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUPPLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUPPLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPPLY_REDIS_URL"`
	Address      string        `envconfig:"SUPPLY_REDIS_ADDR"`
	Password     string        `envconfig:"SUPPLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUPPLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUPPLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPPLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPPLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPPLY_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SUPPLY_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SUPPLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SUPPLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SUPPLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey  string        `envconfig:"SUPPLY_STRIPE_API_KEY"`
	Env     string        `envconfig:"SUPPLY_STRIPE_ENV" default:"test"`
	Timeout time.Duration `envconfig:"SUPPLY_STRIPE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"SUPPLY_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"SUPPLY_METRICS_PATH" default:"/metrics"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SUPPLY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"SUPPLY_CORS_MAX_AGE" default:"300"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	var missing []string
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
