package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName    string `mapstructure:"SERVICE_NAME"`
	EndpointPrefix string `mapstructure:"SERVICE_ENDPOINT_PREFIX"`
	Host           string `mapstructure:"SERVICE_HOST"`
	Port           int    `mapstructure:"SERVICE_PORT"`
	GrpcPort       int    `mapstructure:"GRPC_PORT"`
	GinMode        string `mapstructure:"GIN_MODE"`

	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns  int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns  int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	RunMigrations   bool          `mapstructure:"RUN_MIGRATIONS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	CookieSecure    bool          `mapstructure:"AUTH_COOKIE_SECURE"`

	Currency            string `mapstructure:"PAYMENT_CURRENCY"`
	RazorpayKey         string `mapstructure:"RAZORPAY_API_KEY"`
	RazorpaySecret      string `mapstructure:"RAZORPAY_API_SECRET"`
	StripeKey           string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisPass    string `mapstructure:"REDIS_PASSWORD"`
	ConsulAddr   string `mapstructure:"CONSUL_HTTP_ADDR"`

	CorsOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var keys = []string{
	"SERVICE_NAME", "SERVICE_ENDPOINT_PREFIX", "SERVICE_HOST", "SERVICE_PORT", "GRPC_PORT", "GIN_MODE",
	"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "RUN_MIGRATIONS", "SHUTDOWN_TIMEOUT",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "AUTH_COOKIE_SECURE",
	"PAYMENT_CURRENCY", "RAZORPAY_API_KEY", "RAZORPAY_API_SECRET", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
	"KAFKA_BROKERS", "REDIS_ADDR", "REDIS_PASSWORD", "CONSUL_HTTP_ADDR", "CORS_ALLOWED_ORIGINS",
}

// Load reads an optional .env file and the process environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about when unmarshalling
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("SERVICE_ENDPOINT_PREFIX", "/api/v1")
	v.SetDefault("SERVICE_HOST", "localhost")
	v.SetDefault("SERVICE_PORT", 8080)
	v.SetDefault("GRPC_PORT", 0)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("ACCESS_TOKEN_TTL", 300*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 10*24*time.Hour)
	v.SetDefault("AUTH_COOKIE_SECURE", false)
	v.SetDefault("PAYMENT_CURRENCY", "INR")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if !strings.HasPrefix(c.EndpointPrefix, "/") {
		errs = append(errs, errors.New("SERVICE_ENDPOINT_PREFIX must start with /"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CorsOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
