package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	SMS           SMSConfig
	Identity      IdentityConfig
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
	Env                string `envconfig:"FRESHOILS_APP_ENV" required:"true"`
	Port               string `envconfig:"FRESHOILS_APP_PORT" required:"true"`
	LogLevel           string `envconfig:"FRESHOILS_LOG_LEVEL" default:"info"`
	LogWarnStack       bool   `envconfig:"FRESHOILS_LOG_WARN_STACK" default:"false"`
	DefaultCountryCode string `envconfig:"FRESHOILS_DEFAULT_COUNTRY_CODE" default:"+91"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FRESHOILS_DB_DSN"`

	Host     string `envconfig:"FRESHOILS_DB_HOST"`
	Port     int    `envconfig:"FRESHOILS_DB_PORT" default:"5432"`
	User     string `envconfig:"FRESHOILS_DB_USER"`
	Password string `envconfig:"FRESHOILS_DB_PASSWORD"`
	Name     string `envconfig:"FRESHOILS_DB_NAME"`
	SSLMode  string `envconfig:"FRESHOILS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHOILS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHOILS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHOILS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHOILS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHOILS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHOILS_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHOILS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHOILS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHOILS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHOILS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHOILS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHOILS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHOILS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FRESHOILS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FRESHOILS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FRESHOILS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FRESHOILS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FRESHOILS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FRESHOILS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FRESHOILS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FRESHOILS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FRESHOILS_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL time.Duration `envconfig:"FRESHOILS_OTP_TTL" default:"300s"`
}

// SMSConfig carries the Twilio-style gateway credentials. All fields are
// optional; an unconfigured gateway falls back to logging the message body.
type SMSConfig struct {
	AccountSID string `envconfig:"FRESHOILS_SMS_ACCOUNT_SID"`
	AuthToken  string `envconfig:"FRESHOILS_SMS_AUTH_TOKEN"`
	FromNumber string `envconfig:"FRESHOILS_SMS_FROM_NUMBER"`
}

func (s SMSConfig) Configured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
}

// IdentityConfig configures the phone-ownership verification collaborator.
// An empty project ID leaves the collaborator disabled.
type IdentityConfig struct {
	ProjectID       string `envconfig:"FRESHOILS_IDENTITY_PROJECT_ID"`
	CredentialsPath string `envconfig:"FRESHOILS_IDENTITY_CREDENTIALS_PATH"`
}

func (i IdentityConfig) Configured() bool {
	return i.ProjectID != ""
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit int           `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	OTPWindow       time.Duration `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_OTP_WINDOW" default:"1m"`
	OTPPhoneLimit   int           `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_OTP_PHONE_LIMIT" default:"3"`
	OTPIPLimit      int           `envconfig:"FRESHOILS_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FRESHOILS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
