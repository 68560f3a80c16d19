package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig on top of the explicit keys below.
const EnvPrefix = "TRUSTPOINTS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv     = "TRUSTPOINTS_APP_ENV"
	EnvPort       = "TRUSTPOINTS_APP_PORT"
	EnvDBDSN      = "TRUSTPOINTS_DB_DSN"
	EnvDBHost     = "TRUSTPOINTS_DB_HOST"
	EnvDBUser     = "TRUSTPOINTS_DB_USER"
	EnvDBName     = "TRUSTPOINTS_DB_NAME"
	EnvRedisURL   = "TRUSTPOINTS_REDIS_URL"
	EnvJWTSecret  = "TRUSTPOINTS_JWT_SECRET"
	EnvJWTIssuer  = "TRUSTPOINTS_JWT_ISSUER"
	EnvJWTExpMins = "TRUSTPOINTS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Points   PointsConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Nearby   NearbyConfig

	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"TRUSTPOINTS_APP_ENV" required:"true"`
	Port         string `envconfig:"TRUSTPOINTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRUSTPOINTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRUSTPOINTS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"TRUSTPOINTS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRUSTPOINTS_DB_DSN"`
	Driver string `envconfig:"TRUSTPOINTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRUSTPOINTS_DB_HOST"`
	LegacyPort     int    `envconfig:"TRUSTPOINTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRUSTPOINTS_DB_USER"`
	LegacyPassword string `envconfig:"TRUSTPOINTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRUSTPOINTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRUSTPOINTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRUSTPOINTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRUSTPOINTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRUSTPOINTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRUSTPOINTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRUSTPOINTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRUSTPOINTS_REDIS_ADDR"`
	Password     string        `envconfig:"TRUSTPOINTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRUSTPOINTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRUSTPOINTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRUSTPOINTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRUSTPOINTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRUSTPOINTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRUSTPOINTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRUSTPOINTS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRUSTPOINTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRUSTPOINTS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRUSTPOINTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRUSTPOINTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRUSTPOINTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRUSTPOINTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRUSTPOINTS_ARGON_KEY_LEN" default:"32"`
}

// PointsConfig tunes the points economy knobs that are not part of pricing.
type PointsConfig struct {
	SignupGrant    int   `envconfig:"TRUSTPOINTS_POINTS_SIGNUP_GRANT" default:"100"`
	RupiahPerPoint int64 `envconfig:"TRUSTPOINTS_POINTS_RUPIAH_PER_POINT" default:"100"`
	MaxTransfer    int   `envconfig:"TRUSTPOINTS_POINTS_MAX_TRANSFER" default:"10000"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TRUSTPOINTS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ActivityTopic        string `envconfig:"TRUSTPOINTS_PUBSUB_ACTIVITY_TOPIC" default:"tp-activity-events"`
	ActivitySubscription string `envconfig:"TRUSTPOINTS_PUBSUB_ACTIVITY_SUBSCRIPTION"`
}

// AuthRateLimitConfig throttles credential-guessing traffic on the auth
// endpoints. A zero window disables the corresponding policy.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TRUSTPOINTS_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"TRUSTPOINTS_RL_LOGIN_IP_LIMIT" default:"30"`
	LoginEmailLimit int           `envconfig:"TRUSTPOINTS_RL_LOGIN_EMAIL_LIMIT" default:"10"`

	RegisterWindow  time.Duration `envconfig:"TRUSTPOINTS_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit int           `envconfig:"TRUSTPOINTS_RL_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TRUSTPOINTS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// NearbyConfig bounds the geospatial browse queries.
type NearbyConfig struct {
	DefaultRadiusKm float64 `envconfig:"TRUSTPOINTS_NEARBY_DEFAULT_RADIUS_KM" default:"10"`
	MaxRadiusKm     float64 `envconfig:"TRUSTPOINTS_NEARBY_MAX_RADIUS_KM" default:"50"`
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
