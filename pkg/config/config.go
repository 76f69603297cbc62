package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HELASHOP"

	AppEnvDev     = "development"
	AppEnvStaging = "staging"
	AppEnvProd    = "production"

	EnvAppEnv     = "HELASHOP_APP_ENV"
	EnvAPIBaseURL = "HELASHOP_API_BASE_URL"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Payment PaymentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HELASHOP_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"HELASHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HELASHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"HELASHOP_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"HELASHOP_API_TIMEOUT" default:"30s"`
}

func (a *APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api base url must be http or https, got %q", a.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api base url is missing a host: %q", a.BaseURL)
	}
	a.BaseURL = strings.TrimRight(parsed.String(), "/")
	if a.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", a.Timeout)
	}
	return nil
}

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type SessionConfig struct {
	Backend    string `envconfig:"HELASHOP_SESSION_BACKEND" default:"sqlite"`
	SQLitePath string `envconfig:"HELASHOP_SESSION_SQLITE_PATH" default:"helashop-session.db"`
}

func (s *SessionConfig) validate() error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	switch backend {
	case SessionBackendSQLite, SessionBackendRedis, SessionBackendMemory:
		s.Backend = backend
		return nil
	default:
		return fmt.Errorf("session backend must be sqlite, redis, or memory, got %q", s.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"HELASHOP_REDIS_URL"`
	Address      string        `envconfig:"HELASHOP_REDIS_ADDR"`
	Password     string        `envconfig:"HELASHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"HELASHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HELASHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HELASHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HELASHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HELASHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HELASHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaymentConfig struct {
	// GatewayPayPath is the path fragment a well-formed VNPay payment URL
	// must reference before the client opens it.
	GatewayPayPath string `envconfig:"HELASHOP_VNPAY_PAY_PATH" default:"vpcpay.html"`
	// ErrorPageMarker flags a payment URL that embeds a gateway error page.
	ErrorPageMarker string        `envconfig:"HELASHOP_VNPAY_ERROR_MARKER" default:"Error.html"`
	ReturnAddr      string        `envconfig:"HELASHOP_PAYMENT_RETURN_ADDR" default:"127.0.0.1:7632"`
	ReturnWait      time.Duration `envconfig:"HELASHOP_PAYMENT_RETURN_WAIT" default:"10m"`
}
