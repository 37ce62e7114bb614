package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LOCALMART"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "LOCALMART_DB_DSN"
	EnvDBHost = "LOCALMART_DB_HOST"
	EnvDBUser = "LOCALMART_DB_USER"
	EnvDBName = "LOCALMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"LOCALMART_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCALMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCALMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOCALMART_DB_DSN"`
	Driver string `envconfig:"LOCALMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCALMART_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCALMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCALMART_DB_USER"`
	LegacyPassword string `envconfig:"LOCALMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCALMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCALMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns     int           `envconfig:"LOCALMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"LOCALMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"LOCALMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"LOCALMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"LOCALMART_DB_STATEMENT_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCALMART_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOCALMART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOCALMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOCALMART_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOCALMART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"LOCALMART_OTP_TTL" default:"5m"`
	Digits      int           `envconfig:"LOCALMART_OTP_DIGITS" default:"6"`
	MaxAttempts int           `envconfig:"LOCALMART_OTP_MAX_ATTEMPTS" default:"5"`
	DevEcho     bool          `envconfig:"LOCALMART_OTP_DEV_ECHO" default:"false"`
}

type AuthRateLimitConfig struct {
	OTPWindow     time.Duration `envconfig:"LOCALMART_AUTH_RATE_LIMIT_OTP_WINDOW" default:"1m"`
	OTPPhoneLimit int           `envconfig:"LOCALMART_AUTH_RATE_LIMIT_OTP_PHONE_LIMIT" default:"3"`
	OTPIPLimit    int           `envconfig:"LOCALMART_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCALMART_AUTO_MIGRATE" default:"false"`
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
