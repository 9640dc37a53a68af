package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// 凭据存储后端
const (
	BackendKeyring  = "keyring"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ErrMissingClientCredentials 未配置 OAuth 客户端凭据
var ErrMissingClientCredentials = errors.New("TESLA_CLIENT_ID and TESLA_CLIENT_SECRET must be set")

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// Tesla API
	TeslaAPIHost      string
	TeslaClientID     string
	TeslaClientSecret string
	RequestTimeout    time.Duration

	// 凭据存储
	CredentialBackend string
	KeyringService    string
	KeyringFileDir    string
	KeyringPassword   string
	SQLitePath        string
	DatabaseURL       string

	// 指标与缓存
	MetricsEnabled bool
	ViewCacheSize  int

	// TUI 偏好设置路径
	PrefsPath string
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:        getEnv("PORT", "4000"),
		Debug:             getEnvBool("DEBUG", false),
		TeslaAPIHost:      getEnv("TESLA_API_HOST", "https://owner-api.teslamotors.com"),
		TeslaClientID:     getEnv("TESLA_CLIENT_ID", ""),
		TeslaClientSecret: getEnv("TESLA_CLIENT_SECRET", ""),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		CredentialBackend: getEnv("CREDENTIAL_BACKEND", BackendKeyring),
		KeyringService:    getEnv("KEYRING_SERVICE", "teslaowner"),
		KeyringFileDir:    getEnv("KEYRING_FILE_DIR", defaultPath(".teslaowner", "keys")),
		KeyringPassword:   getEnv("KEYRING_PASSWORD", ""),
		SQLitePath:        getEnv("SQLITE_PATH", defaultPath(".teslaowner", "credentials.db")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		ViewCacheSize:     getEnvInt("VIEW_CACHE_SIZE", 16),
		PrefsPath:         getEnv("PREFS_PATH", defaultPath(".config", "teslaowner", "prefs.toml")),
	}

	switch cfg.CredentialBackend {
	case BackendKeyring, BackendFile, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s credential backend", BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown CREDENTIAL_BACKEND %q", cfg.CredentialBackend)
	}
	if cfg.ViewCacheSize <= 0 {
		return nil, fmt.Errorf("VIEW_CACHE_SIZE must be positive, got %d", cfg.ViewCacheSize)
	}

	return cfg, nil
}

// Validate 检查登录所需的客户端凭据
func (c *Config) Validate() error {
	if c.TeslaClientID == "" || c.TeslaClientSecret == "" {
		return ErrMissingClientCredentials
	}
	return nil
}

func defaultPath(elem ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(elem...)
	}
	return filepath.Join(append([]string{home}, elem...)...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
