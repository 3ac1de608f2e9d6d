package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envProduction = "production"

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Docs      DocsConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	URL         string        `mapstructure:"url"`
	APIPrefix   string        `mapstructure:"api_prefix"`
	SeedAdmin   bool          `mapstructure:"seed_admin"`

	// TrustedProxies lists the peers whose forwarding headers are believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	Migrator        string        `mapstructure:"migrator"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// AuthConfig drives issuance of login session tokens.
type AuthConfig struct {
	TokenName          string `mapstructure:"token_name"`
	DefaultExpiryHours int    `mapstructure:"default_expiry_hours"`
	RememberExpiryDays int    `mapstructure:"remember_expiry_days"`
	TokenPrefix        string `mapstructure:"token_prefix"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

type DocsConfig struct {
	Title          string `mapstructure:"title"`
	SwaggerVersion string `mapstructure:"swagger_version"`
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "accounts"),
			Environment:    getEnv("APP_ENV", "development"),
			Port:           getEnv("APP_PORT", "8080"),
			Debug:          getEnvAsBool("APP_DEBUG", true),
			Timeout:        getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			URL:            strings.TrimRight(getEnv("APP_URL", ""), "/"),
			APIPrefix:      getEnv("APP_API_PREFIX", "/api"),
			SeedAdmin:      getEnvAsBool("SEED_ADMIN", false),
			TrustedProxies: getEnvAsList("APP_TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "accounts"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "var/accounts.db"),
			Migrator:        getEnv("DB_MIGRATOR", "auto"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			TokenTTL:     getEnvAsDuration("REDIS_TOKEN_TTL", time.Minute),
		},
		Auth: AuthConfig{
			TokenName:          getEnv("AUTH_TOKEN_NAME", "auth_token"),
			DefaultExpiryHours: getEnvAsInt("AUTH_TOKEN_EXPIRES_DEFAULT_HOURS", 2),
			RememberExpiryDays: getEnvAsInt("AUTH_TOKEN_EXPIRES_REMEMBER_DAYS", 30),
			TokenPrefix:        getEnv("AUTH_TOKEN_PREFIX", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost",
				"http://localhost:3000",
				"http://localhost:5173",
				"http://localhost:8000",
			}),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 10),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 60),
		},
		Docs: DocsConfig{
			Title:          getEnv("DOCS_TITLE", "API Documentation"),
			SwaggerVersion: getEnv("DOCS_SWAGGER_UI_VERSION", "5"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the token issuer and the store cannot work with.
func (c *Config) Validate() error {
	if c.IsProduction() && c.App.URL == "" {
		return fmt.Errorf("APP_URL must be set in production")
	}
	for _, proxy := range c.App.TrustedProxies {
		if _, err := ParseTrustedProxy(proxy); err != nil {
			return fmt.Errorf("invalid APP_TRUSTED_PROXIES entry %q: %w", proxy, err)
		}
	}
	if strings.TrimSpace(c.Auth.TokenName) == "" {
		return fmt.Errorf("AUTH_TOKEN_NAME must not be empty")
	}
	if c.Auth.DefaultExpiryHours <= 0 {
		return fmt.Errorf("AUTH_TOKEN_EXPIRES_DEFAULT_HOURS must be positive, got %d", c.Auth.DefaultExpiryHours)
	}
	if c.Auth.RememberExpiryDays <= 0 {
		return fmt.Errorf("AUTH_TOKEN_EXPIRES_REMEMBER_DAYS must be positive, got %d", c.Auth.RememberExpiryDays)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Database.Migrator {
	case "auto", "goose":
	default:
		return fmt.Errorf("unsupported DB_MIGRATOR %q", c.Database.Migrator)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == envProduction
}

// ParseTrustedProxy accepts a bare address or a CIDR block.
func ParseTrustedProxy(proxy string) (netip.Prefix, error) {
	if strings.Contains(proxy, "/") {
		prefix, err := netip.ParsePrefix(proxy)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(proxy)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
