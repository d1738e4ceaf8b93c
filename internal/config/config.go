package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	LLM                       LLMConfig
	Session                   SessionConfig
	RateLimit                 RateLimitConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	MaxUploadMB               int
	ApproachCacheSize         int
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LLMConfig holds the credentials and endpoints of the model providers. An empty key
// disables that provider.
type LLMConfig struct {
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	Timeout          time.Duration
}

// SessionConfig selects the session store. Without a Redis URL sessions live in memory.
type SessionConfig struct {
	RedisURL string
	TTL      time.Duration
}

// RateLimitConfig bounds requests per client on the model-backed endpoints.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var defaults = map[string]string{
	"PORT":                         "3001",
	"ORIGIN":                       "http://localhost:4200",
	"APP_ENV":                      "development",
	"LOG_LEVEL":                    "info",
	"DB_HOST":                      "localhost",
	"DB_PORT":                      "3306",
	"DB_USERNAME":                  "root",
	"DB_PASSWORD":                  "",
	"DB_NAME":                      "precision_medicine",
	"JWT_SECRET":                   "default_jwt_secret",
	"JWT_REFRESH_SECRET":           "default_refresh_secret",
	"JWT_EXPIRATION_MINUTES":       "15",
	"JWT_REFRESH_EXPIRATION_HOURS": "168", // 7 days
	"ANTHROPIC_API_KEY":            "",
	"ANTHROPIC_MODEL":              "claude-3-5-sonnet-20241022",
	"ANTHROPIC_BASE_URL":           "",
	"OPENAI_API_KEY":               "",
	"OPENAI_MODEL":                 "gpt-4o",
	"OPENAI_BASE_URL":              "https://api.openai.com",
	"GEMINI_API_KEY":               "",
	"GEMINI_MODEL":                 "gemini-2.0-flash",
	"GEMINI_BASE_URL":              "https://generativelanguage.googleapis.com",
	"LLM_TIMEOUT":                  "30s",
	"REDIS_URL":                    "",
	"SESSION_TTL":                  "24h",
	"RATE_LIMIT_RPS":               "2",
	"RATE_LIMIT_BURST":             "5",
	"MAX_UPLOAD_MB":                "16",
	"APPROACH_CACHE_SIZE":          "256",
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	dbConfig := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := getInt(v, "JWT_EXPIRATION_MINUTES")
	if err != nil {
		return nil, err
	}
	jwtRefreshExpHours, err := getInt(v, "JWT_REFRESH_EXPIRATION_HOURS")
	if err != nil {
		return nil, err
	}
	llmTimeout, err := getDuration(v, "LLM_TIMEOUT")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getDuration(v, "SESSION_TTL")
	if err != nil {
		return nil, err
	}
	burst, err := getInt(v, "RATE_LIMIT_BURST")
	if err != nil {
		return nil, err
	}
	maxUpload, err := getInt(v, "MAX_UPLOAD_MB")
	if err != nil {
		return nil, err
	}
	cacheSize, err := getInt(v, "APPROACH_CACHE_SIZE")
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(v.GetString("RATE_LIMIT_RPS"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	return &Config{
		Port:             v.GetString("PORT"),
		Origin:           v.GetString("ORIGIN"),
		Environment:      v.GetString("APP_ENV"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		Database:         dbConfig,
		LLM: LLMConfig{
			AnthropicAPIKey:  v.GetString("ANTHROPIC_API_KEY"),
			AnthropicModel:   v.GetString("ANTHROPIC_MODEL"),
			AnthropicBaseURL: v.GetString("ANTHROPIC_BASE_URL"),
			OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
			OpenAIModel:      v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL:    v.GetString("OPENAI_BASE_URL"),
			GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
			GeminiModel:      v.GetString("GEMINI_MODEL"),
			GeminiBaseURL:    v.GetString("GEMINI_BASE_URL"),
			Timeout:          llmTimeout,
		},
		Session: SessionConfig{
			RedisURL: v.GetString("REDIS_URL"),
			TTL:      sessionTTL,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		MaxUploadMB:               maxUpload,
		ApproachCacheSize:         cacheSize,
	}, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
