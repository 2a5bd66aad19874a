package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type TwilioConfig struct {
	AccountSID        string `json:"account_sid"`
	AuthToken         string `json:"-"`
	DefaultFromNumber string `json:"default_from_number"`
	ValidateWebhooks  bool   `json:"validate_webhooks"`
}

// HasCredentials is false in dry-run mode.
func (t TwilioConfig) HasCredentials() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

type OpenAIConfig struct {
	APIKey  string        `json:"-"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

type WorkflowConfig struct {
	Concurrency int `json:"concurrency"`
	QueueSize   int `json:"queue_size"`
}

type Config struct {
	Environment        string         `json:"environment"`
	ServerPort         string         `json:"server_port"`
	DBHost             string         `json:"db_host"`
	DBPort             string         `json:"db_port"`
	DBUser             string         `json:"db_user"`
	DBPassword         string         `json:"-"`
	DBName             string         `json:"db_name"`
	DBSSLMode          string         `json:"db_ssl_mode"`
	DBMaxIdleConns     int            `json:"db_max_idle_conns"`
	DBMaxOpenConns     int            `json:"db_max_open_conns"`
	JWTSecret          string         `json:"-"`
	AllowedOrigins     []string       `json:"allowed_origins"`
	PublicBaseURL      string         `json:"public_base_url"`
	DefaultPhoneRegion string         `json:"default_phone_region"`
	Twilio             TwilioConfig   `json:"twilio"`
	Redis              RedisConfig    `json:"redis"`
	RateLimitSend      int            `json:"rate_limit_send"`
	OpenAI             OpenAIConfig   `json:"openai"`
	SentryDSN          string         `json:"-"`
	LogLevel           string         `json:"log_level"`
	Workflow           WorkflowConfig `json:"workflow"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

// LoadConfig reads the environment into a Config. Nothing is kept in
// package state; callers pass the result down explicitly.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         getEnv("SERVER_PORT", "5000"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "groscales"),
		DBSSLMode:          getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		Twilio: TwilioConfig{
			AccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
			DefaultFromNumber: getEnv("TWILIO_DEFAULT_FROM_NUMBER", ""),
			ValidateWebhooks:  getEnvAsBool("TWILIO_VALIDATE_WEBHOOKS", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimitSend: getEnvAsInt("RATE_LIMIT_SEND_PER_MINUTE", 30),
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 8*time.Second),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Workflow: WorkflowConfig{
			Concurrency: getEnvAsInt("WORKFLOW_CONCURRENCY", 4),
			QueueSize:   getEnvAsInt("WORKFLOW_QUEUE_SIZE", 256),
		},
	}

	// Validate required configurations
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Twilio.ValidateWebhooks && cfg.Twilio.AuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_WEBHOOKS is set")
	}
	if cfg.Workflow.Concurrency < 1 {
		cfg.Workflow.Concurrency = 1
	}
	if cfg.Workflow.QueueSize < 1 {
		cfg.Workflow.QueueSize = 1
	}

	return cfg, nil
}

// IsProduction is used to pick log formatting.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

// LogConfig prints the non-secret parts of the configuration.
func (c *Config) LogConfig(logger logrus.FieldLogger) {
	logger.WithFields(logrus.Fields{
		"environment":   c.Environment,
		"server_port":   c.ServerPort,
		"database":      fmt.Sprintf("%s@%s:%s/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName),
		"twilio":        c.Twilio.HasCredentials(),
		"dry_run":       !c.Twilio.HasCredentials(),
		"redis":         c.Redis.Enabled,
		"openai":        c.OpenAI.APIKey != "",
		"sentry":        c.SentryDSN != "",
		"workflow_pool": c.Workflow.Concurrency,
	}).Info("🔧 Loaded configuration")
}
