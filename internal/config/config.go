package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Local reverse proxy
	ProxyPort      string
	AllowedOrigins []string

	// Backends. APIBaseURL is what the desk client talks to (normally the
	// local proxy); BackendURL is the private upstream the proxy forwards to.
	APIBaseURL string
	BackendURL string
	WSBaseURL  string

	// Token handling
	RefreshSafetyWindow time.Duration
	ExpiryCacheTTL      time.Duration

	// Realtime
	ReconnectDelay time.Duration

	// Persistence
	RedisAddr       string
	RedisPassword   string
	StoragePath     string
	NotificationCap int
}

func LoadConfig() *Config {
	proxyPort := GetEnv("PROXY_PORT", "8090")
	backendURL := strings.TrimRight(GetEnv("BACKEND_URL", "http://localhost:8000"), "/")
	apiBaseURL := strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:"+proxyPort+"/api"), "/")
	wsBaseURL := strings.TrimRight(GetEnv("WS_BASE_URL", "ws://localhost:8000"), "/")

	allowedOrigins := []string{"http://localhost:5173"}
	if extra := GetEnv("ALLOWED_ORIGINS", ""); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	return &Config{
		ProxyPort:           proxyPort,
		AllowedOrigins:      allowedOrigins,
		APIBaseURL:          apiBaseURL,
		BackendURL:          backendURL,
		WSBaseURL:           wsBaseURL,
		RefreshSafetyWindow: GetEnvAsDuration("REFRESH_SAFETY_WINDOW", 5*time.Minute),
		ExpiryCacheTTL:      GetEnvAsDuration("EXPIRY_CACHE_TTL", 30*time.Second),
		ReconnectDelay:      GetEnvAsDuration("WS_RECONNECT_DELAY", 3*time.Second),
		RedisAddr:           GetEnv("REDIS_URL", ""),
		RedisPassword:       GetEnv("REDIS_PASSWORD", ""),
		StoragePath:         GetEnv("STORAGE_PATH", ".murojaat-desk.json"),
		NotificationCap:     GetEnvAsInt("NOTIFICATION_CAP", 100),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
