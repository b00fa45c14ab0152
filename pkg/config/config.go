package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the gateway.
type Config struct {
	Port string

	// Upstream trading backend
	BackendURL     string
	BackendTimeout time.Duration // whole-call budget for orchestration writes
	SubReadTimeout time.Duration // per-section budget for dashboard fan-out reads
	RequestTimeout time.Duration // inbound request ceiling

	// Provisioning
	DefaultProvider string
	ProviderKeys    map[string]string // provider -> API key used to create a model config
	ProviderURLs    map[string]string // provider -> custom inference endpoint
	ProviderModels  map[string]string // provider -> custom model name

	// Venue registry
	VenuesFile string

	// Secret sealing (optional; plaintext forwarding when unset)
	SecretsKey string

	// Caching
	LeaderboardTTL time.Duration
	DashboardTTL   time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

// Providers the gateway knows how to provision out of the box. Each one reads
// <PROVIDER>_API_KEY plus optional <PROVIDER>_API_URL / <PROVIDER>_MODEL_NAME.
var knownProviders = []string{"deepseek", "openai", "anthropic", "qwen"}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	keys := make(map[string]string)
	urls := make(map[string]string)
	models := make(map[string]string)
	for _, p := range knownProviders {
		prefix := strings.ToUpper(p)
		if v := os.Getenv(prefix + "_API_KEY"); v != "" {
			keys[p] = v
		}
		if v := os.Getenv(prefix + "_API_URL"); v != "" {
			urls[p] = v
		}
		if v := os.Getenv(prefix + "_MODEL_NAME"); v != "" {
			models[p] = v
		}
	}

	backendURL := getEnv("BACKEND_URL", "")
	if backendURL == "" {
		// GO_API_URL kept for compatibility with older deployments.
		backendURL = getEnv("GO_API_URL", "http://localhost:8080")
	}

	return &Config{
		Port:            getEnv("PORT", "3000"),
		BackendURL:      strings.TrimRight(backendURL, "/"),
		BackendTimeout:  getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		SubReadTimeout:  getEnvDuration("SUB_READ_TIMEOUT", 5*time.Second),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		DefaultProvider: strings.ToLower(getEnv("DEFAULT_AI_PROVIDER", "deepseek")),
		ProviderKeys:    keys,
		ProviderURLs:    urls,
		ProviderModels:  models,
		VenuesFile:      getEnv("VENUES_FILE", ""),
		SecretsKey:      os.Getenv("SECRETS_KEY"),
		LeaderboardTTL:  getEnvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		DashboardTTL:    getEnvDuration("DASHBOARD_CACHE_TTL", 15*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare numbers are treated as seconds.
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
