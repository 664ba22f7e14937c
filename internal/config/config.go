package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Bot reply providers.
const (
	BotStatic = "static"
	BotRules  = "rules"
	BotHTTP   = "http"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	StoreDriver string
	SQLitePath  string

	UploadDir          string
	MaxAttachmentBytes int64

	IdleWindowSeconds    int
	AppendTimeoutSeconds int

	BotProvider           string
	BotReplyText          string
	BotFallbackText       string
	BotRules              string
	BotHTTPURL            string
	BotHTTPTimeoutSeconds int

	EncryptKey  string
	CORSOrigins []string
	Debug       bool
}

func Load() (*Config, error) {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "Support Chat API"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		StoreDriver: getEnv("STORE_DRIVER", StoreSQLite),
		SQLitePath:  getEnv("SQLITE_PATH", "supportchat.db"),

		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		MaxAttachmentBytes: getEnvAsInt64("MAX_ATTACHMENT_BYTES", 200<<20),

		IdleWindowSeconds:    getEnvAsInt("IDLE_WINDOW_SECONDS", 180),
		AppendTimeoutSeconds: getEnvAsInt("APPEND_TIMEOUT_SECONDS", 5),

		BotProvider:           getEnv("BOT_PROVIDER", BotStatic),
		BotReplyText:          getEnv("BOT_REPLY_TEXT", "Our team is currently unavailable. We will get back to you shortly."),
		BotFallbackText:       getEnv("BOT_FALLBACK_TEXT", "Sorry, the admin is not available right now. Please check back soon."),
		BotRules:              os.Getenv("BOT_RULES"),
		BotHTTPURL:            os.Getenv("BOT_HTTP_URL"),
		BotHTTPTimeoutSeconds: getEnvAsInt("BOT_HTTP_TIMEOUT_SECONDS", 10),

		EncryptKey: os.Getenv("ENCRYPTION_KEY"),
		Debug:      getEnvAsBool("DEBUG", true),
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	switch cfg.StoreDriver {
	case StoreSQLite, StoreMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreSQLite, StoreMemory)
	}

	switch cfg.BotProvider {
	case BotStatic:
	case BotRules:
		if cfg.BotRules == "" {
			return nil, fmt.Errorf("BOT_RULES is required when BOT_PROVIDER=rules")
		}
	case BotHTTP:
		if cfg.BotHTTPURL == "" {
			return nil, fmt.Errorf("BOT_HTTP_URL is required when BOT_PROVIDER=http")
		}
	default:
		return nil, fmt.Errorf("BOT_PROVIDER must be one of %q, %q, %q", BotStatic, BotRules, BotHTTP)
	}

	if cfg.IdleWindowSeconds <= 0 {
		return nil, fmt.Errorf("IDLE_WINDOW_SECONDS must be positive")
	}
	if cfg.MaxAttachmentBytes <= 0 {
		return nil, fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
