package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHOPFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:shopfront.db?_foreign_keys=on"
)

const (
	EnvAppEnv        = "SHOPFRONT_APP_ENV"
	EnvPort          = "SHOPFRONT_APP_PORT"
	EnvLogLevel      = "SHOPFRONT_LOG_LEVEL"
	EnvLogFormat     = "SHOPFRONT_LOG_FORMAT"
	EnvDBDSN         = "SHOPFRONT_DB_DSN"
	EnvDBDriver      = "SHOPFRONT_DB_DRIVER"
	EnvDBHost        = "SHOPFRONT_DB_HOST"
	EnvDBUser        = "SHOPFRONT_DB_USER"
	EnvDBName        = "SHOPFRONT_DB_NAME"
	EnvRedisURL      = "SHOPFRONT_REDIS_URL"
	EnvStoreLat      = "SHOPFRONT_STORE_ORIGIN_LAT"
	EnvStoreLng      = "SHOPFRONT_STORE_ORIGIN_LNG"
	EnvMapsAPIKey    = "SHOPFRONT_GOOGLE_MAPS_API_KEY"
	EnvCartTTL       = "SHOPFRONT_CART_SESSION_TTL"
	EnvUseSQLite     = "SHOPFRONT_USE_SQLITE"
	EnvAutoMigrate   = "SHOPFRONT_AUTO_MIGRATE"
	EnvSeedReference = "SHOPFRONT_SEED_REFERENCE_DATA"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	Store        StoreConfig
	GoogleMaps   GoogleMapsConfig
	Cart         CartConfig
	Telemetry    TelemetryConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHOPFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig tunes the API server boundary.
type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"SHOPFRONT_HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	IdempotencyTTL  time.Duration `envconfig:"SHOPFRONT_HTTP_IDEMPOTENCY_TTL" default:"24h"`
	ReadTimeout     time.Duration `envconfig:"SHOPFRONT_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SHOPFRONT_HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHOPFRONT_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPFRONT_DB_DSN"`
	Driver string `envconfig:"SHOPFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPFRONT_DB_USER"`
	LegacyPassword string `envconfig:"SHOPFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// RedisConfig is optional: with neither URL nor address set, carts live in process memory.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// StoreConfig holds the fixed origin used for delivery distances.
type StoreConfig struct {
	OriginLat     float64 `envconfig:"SHOPFRONT_STORE_ORIGIN_LAT" default:"0"`
	OriginLng     float64 `envconfig:"SHOPFRONT_STORE_ORIGIN_LNG" default:"0"`
	OriginAddress string  `envconfig:"SHOPFRONT_STORE_ORIGIN_ADDRESS"`
}

type GoogleMapsConfig struct {
	APIKey  string `envconfig:"SHOPFRONT_GOOGLE_MAPS_API_KEY"`
	BaseURL string `envconfig:"SHOPFRONT_GOOGLE_MAPS_BASE_URL"`
	Region  string `envconfig:"SHOPFRONT_GOOGLE_MAPS_REGION" default:"AU"`
}

// Enabled reports whether distance-based pricing can be wired.
func (g GoogleMapsConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"SHOPFRONT_CART_SESSION_TTL" default:"72h"`
}

// TelemetryConfig enables trace export when an OTLP endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint   string `envconfig:"SHOPFRONT_OTEL_EXPORTER_ENDPOINT"`
	Insecure       bool   `envconfig:"SHOPFRONT_OTEL_EXPORTER_INSECURE" default:"true"`
	ServiceVersion string `envconfig:"SHOPFRONT_SERVICE_VERSION" default:"dev"`
}

// Enabled reports whether spans should be exported.
func (t TelemetryConfig) Enabled() bool {
	return strings.TrimSpace(t.OTLPEndpoint) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite         bool `envconfig:"SHOPFRONT_USE_SQLITE" default:"false"`
	AutoMigrate       bool `envconfig:"SHOPFRONT_AUTO_MIGRATE" default:"false"`
	SeedReferenceData bool `envconfig:"SHOPFRONT_SEED_REFERENCE_DATA" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
