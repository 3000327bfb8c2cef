package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Persistence. UseMemoryStore keeps conversations in process and reads
	// properties from PropertiesFile instead of Postgres.
	DatabaseURL      string
	UseMemoryStore   bool
	PropertiesFile   string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	PropertyCacheTTL time.Duration
	TranscriptsOn    bool

	UseMemoryQueue       bool
	WorkerCount          int
	ConversationQueueURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	BedrockModelID        string
	GeminiAPIKey          string
	GeminiModelID         string
	RecommendationTimeout time.Duration

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioFromNumber     string
	TwilioBaseURL        string
	WebhookRatePerSecond float64
	WebhookBurst         int
	AdminAPIToken        string

	SMSSegmentLength int
	DefaultTimezone  string
	PausedAfter      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		UseMemoryStore:   getEnvAsBool("USE_MEMORY_STORE", false),
		PropertiesFile:   getEnv("PROPERTIES_FILE", "testdata/properties.json"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		PropertyCacheTTL: getEnvAsDuration("PROPERTY_CACHE_TTL", 10*time.Minute),
		TranscriptsOn:    getEnvAsBool("TRANSCRIPTS_ENABLED", true),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		BedrockModelID:        getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:         getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		RecommendationTimeout: getEnvAsDuration("RECOMMENDATION_TIMEOUT", 8*time.Second),

		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:     getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioBaseURL:        getEnv("TWILIO_BASE_URL", ""),
		WebhookRatePerSecond: getEnvAsFloat("WEBHOOK_RATE_PER_SECOND", 1),
		WebhookBurst:         getEnvAsInt("WEBHOOK_BURST", 5),
		AdminAPIToken:        getEnv("ADMIN_API_TOKEN", ""),

		SMSSegmentLength: getEnvAsInt("SMS_SEGMENT_LENGTH", 160),
		DefaultTimezone:  getEnv("DEFAULT_TIMEZONE", "America/New_York"),
		PausedAfter:      getEnvAsDuration("PAUSED_AFTER", 2*time.Hour),
	}
}

// Production reports whether ENV names a production deployment.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
