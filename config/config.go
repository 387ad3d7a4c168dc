package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	aws_pkg "github.com/iilkane/Legerity/pkg/aws"
)

// DBSecretName holds the Postgres credentials when AWS_USE_SECRETS=true.
const DBSecretName = "storefront/DB_CREDENTIALS"

type Config struct {
	Port string
	Env  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	JWTSecret          string
	TrustGatewayHeader bool

	KafkaBrokers     []string
	OrderEventsTopic string
	OrderSNSTopicARN string

	CheckoutMaxRetries   int
	CheckoutRetryBackoff time.Duration
	IdempotencyTTL       time.Duration
	CatalogCacheTTL      time.Duration
	RequestTimeout       time.Duration

	AllowedOrigins     []string
	RateLimitPerMinute int

	UseSecrets          bool
	CloudWatchEnabled   bool
	CloudWatchNamespace string
}

// Load reads the configuration from the environment, a local .env file and,
// when enabled, AWS Secrets Manager.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using system environment variables")
	}

	cfg := fromEnv()

	if cfg.UseSecrets {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		if err := applySecrets(ctx, cfg, aws_pkg.NewSecretsClient(awsCfg, 0)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("APP_ENV", "development"),
		PostgresUser:         os.Getenv("POSTGRES_USER"),
		PostgresPassword:     os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:           os.Getenv("POSTGRES_DB"),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:     getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TrustGatewayHeader:   getBool("TRUST_GATEWAY_HEADER", false),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:     getEnv("ORDER_EVENTS_TOPIC", "order.placed"),
		OrderSNSTopicARN:     os.Getenv("ORDER_SNS_TOPIC_ARN"),
		CheckoutMaxRetries:   getInt("CHECKOUT_MAX_RETRIES", 3),
		CheckoutRetryBackoff: getDuration("CHECKOUT_RETRY_BACKOFF", 50*time.Millisecond),
		IdempotencyTTL:       getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		CatalogCacheTTL:      getDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		RequestTimeout:       getDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerMinute:   getInt("RATE_LIMIT_PER_MINUTE", 100),
		UseSecrets:           getBool("AWS_USE_SECRETS", false),
		CloudWatchEnabled:    getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNamespace:  getEnv("CLOUDWATCH_NAMESPACE", "Legerity"),
	}
}

// applySecrets overrides the database credentials with the JSON document
// stored under DBSecretName. Empty values in the secret are ignored.
func applySecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter) error {
	m, err := aws_pkg.SecretFields(ctx, sm, DBSecretName)
	if err != nil {
		return fmt.Errorf("load %s: %w", DBSecretName, err)
	}
	overrides := map[string]*string{
		"POSTGRES_USER":     &cfg.PostgresUser,
		"POSTGRES_PASSWORD": &cfg.PostgresPassword,
		"POSTGRES_DB":       &cfg.PostgresDB,
		"POSTGRES_HOST":     &cfg.PostgresHost,
		"POSTGRES_PORT":     &cfg.PostgresPort,
	}
	for key, dst := range overrides {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" && !c.TrustGatewayHeader {
		return fmt.Errorf("JWT_SECRET is required unless TRUST_GATEWAY_HEADER=true")
	}
	if c.CheckoutMaxRetries < 0 {
		return fmt.Errorf("CHECKOUT_MAX_RETRIES must not be negative")
	}
	return nil
}

// PostgresDSN builds the connection string for gorm's postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
