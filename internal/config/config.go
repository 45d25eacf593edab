package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service needs. It is built once in main and
// passed to constructors.
type Config struct {
	AppHost   string // HTTP listen host
	AppPort   string // HTTP listen port
	LogLevel  string // zap level name
	LogFormat string // json or console

	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresMaxOpenConns int
	PostgresMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string // empty disables event publishing
	KafkaTopic   string

	JWTSecretKey string
	JWTExp       time.Duration

	PaystackBaseURL   string
	PaystackSecretKey string
	PaystackTimeout   time.Duration

	TwilioBaseURL    string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioServiceSID string

	N8nBaseURL       string
	N8nAPIKey        string
	N8nWebhookSecret string

	DepositWorkflowID       string // fired after a credited deposit, empty disables
	PasswordResetWorkflowID string // delivers the reset token
	PasswordResetTokenTTL   time.Duration

	OTPMaxSends   int
	OTPSendWindow time.Duration

	DepositMaxRetries   int
	DepositRetryInitial time.Duration
	DepositRetryMaxWait time.Duration
	ReconcileSchedule   string
	ReconcileMinAge     time.Duration
	ReconcileBatchSize  int
	ShutdownTimeout     time.Duration
}

// Load reads the env file at path (missing file is not an error) and builds
// a Config from the process environment with defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(path)

	p := &parser{}
	cfg := &Config{
		AppHost:   getEnv("APP_HOST", "localhost"),
		AppPort:   getEnv("APP_PORT", "8080"),
		LogLevel:  getEnv("APP_LOG_LEVEL", "info"),
		LogFormat: getEnv("APP_LOG_FORMAT", "json"),

		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         p.integer("POSTGRES_PORT", "5432"),
		PostgresUser:         getEnv("POSTGRES_USER", "user"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:           getEnv("POSTGRES_DB", "database"),
		PostgresMaxOpenConns: p.integer("POSTGRES_MAX_OPEN_CONNS", "16"),
		PostgresMaxIdleConns: p.integer("POSTGRES_MAX_IDLE_CONNS", "8"),

		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         p.integer("REDIS_PORT", "6379"),
		RedisDB:           p.integer("REDIS_DB", "0"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisPoolSize:     p.integer("REDIS_POOL_SIZE", "10"),
		RedisMinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", "2"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "wallet.transactions"),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", "my_super_secret_key"),
		JWTExp:       p.seconds("JWT_EXP_SECOND", "3600"),

		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackTimeout:   p.duration("PAYSTACK_TIMEOUT", "30s"),

		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://verify.twilio.com/v2"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioServiceSID: getEnv("TWILIO_VERIFY_SERVICE_SID", ""),

		N8nBaseURL:       getEnv("N8N_BASE_URL", "http://localhost:5678"),
		N8nAPIKey:        getEnv("N8N_API_KEY", ""),
		N8nWebhookSecret: getEnv("N8N_WEBHOOK_SECRET", ""),

		DepositWorkflowID:       getEnv("N8N_DEPOSIT_WORKFLOW", ""),
		PasswordResetWorkflowID: getEnv("N8N_PASSWORD_RESET_WORKFLOW", ""),
		PasswordResetTokenTTL:   p.duration("PASSWORD_RESET_TOKEN_TTL", "1h"),

		OTPMaxSends:   p.integer("OTP_MAX_SENDS", "5"),
		OTPSendWindow: p.duration("OTP_SEND_WINDOW", "10m"),

		DepositMaxRetries:   p.integer("DEPOSIT_MAX_RETRIES", "3"),
		DepositRetryInitial: p.duration("DEPOSIT_RETRY_INITIAL", "1s"),
		DepositRetryMaxWait: p.duration("DEPOSIT_RETRY_MAX_WAIT", "30s"),
		ReconcileSchedule:   getEnv("RECONCILE_SCHEDULE", "@every 10s"),
		ReconcileMinAge:     p.duration("RECONCILE_MIN_AGE", "30s"),
		ReconcileBatchSize:  p.integer("RECONCILE_BATCH_SIZE", "50"),
		ShutdownTimeout:     p.duration("SHUTDOWN_TIMEOUT", "10s"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// PostgresDSN returns the pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// HTTPAddr returns the listen address of the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

func getEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can build the struct in one literal.
type parser struct {
	err error
}

func (p *parser) integer(key, def string) int {
	v, err := strconv.Atoi(getEnv(key, def))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) seconds(key, def string) time.Duration {
	return time.Duration(p.integer(key, def)) * time.Second
}

func (p *parser) duration(key, def string) time.Duration {
	v, err := time.ParseDuration(getEnv(key, def))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
