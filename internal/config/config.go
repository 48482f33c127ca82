package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	InputLanguage string

	// Reasoner (LLM) configuration
	ReasonerProvider string // "bedrock", "openai", or "gemini"
	ReasonerTimeout  time.Duration
	BedrockModelID   string
	OpenAIAPIKey     string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	AWSRegion        string
	AWSAccessKeyID   string
	AWSSecretKey     string
	AWSEndpoint      string

	// Conversation policy knobs. These are contract constants exposed as
	// configuration so deployments can tighten (never loosen) them.
	MaxAttempts    int // agent turns before a stalled conversation is closed out
	MaxRevisions   int // review-loop regeneration ceiling
	PhoneMinDigits int // minimum digits for a usable WhatsApp contact

	// History store (optional collaborator adapter)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		InputLanguage: getEnv("INPUT_LANGUAGE", "Brazilian Portuguese"),

		ReasonerProvider: strings.ToLower(strings.TrimSpace(getEnv("REASONER_PROVIDER", "bedrock"))),
		ReasonerTimeout:  getEnvAsDuration("REASONER_TIMEOUT", 30*time.Second),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:      getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		MaxAttempts:    getEnvAsInt("MAX_ATTEMPTS", 5),
		MaxRevisions:   getEnvAsInt("MAX_REVISIONS", 3),
		PhoneMinDigits: getEnvAsInt("PHONE_MIN_DIGITS", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
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
