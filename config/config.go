package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	JWT        JWTConfig        `koanf:"jwt"`
	Storage    StorageConfig    `koanf:"storage"`
	Logging    LoggingConfig    `koanf:"logging"`
	CORS       CORSConfig       `koanf:"cors"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Pagination PaginationConfig `koanf:"pagination"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `koanf:"host"`
	Port        string `koanf:"port"`
	User        string `koanf:"user"`
	Password    string `koanf:"password"`
	Name        string `koanf:"name"`
	SSLMode     string `koanf:"ssl_mode"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// RedisConfig is optional. When neither URL nor Host is set the service runs
// with in-process token revocation and rate limiting.
type RedisConfig struct {
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type JWTConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

// StorageConfig selects where uploaded recipe images are written.
type StorageConfig struct {
	Driver            string `koanf:"driver"`
	LocalDir          string `koanf:"local_dir"`
	PublicBaseURL     string `koanf:"public_base_url"`
	S3Bucket          string `koanf:"s3_bucket"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type RateLimitConfig struct {
	RecipeCreatesPerHour int `koanf:"recipe_creates_per_hour"`
}

type PaginationConfig struct {
	PageSize int `koanf:"page_size"`
	MaxSize  int `koanf:"max_size"`
}

// Default returns the built-in configuration used as the lowest layer.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "foodgram",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Port: "6379",
		},
		JWT: JWTConfig{
			TTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Driver:        StorageLocal,
			LocalDir:      "media",
			PublicBaseURL: "/media/",
			S3Region:      "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: RateLimitConfig{
			RecipeCreatesPerHour: 20,
		},
		Pagination: PaginationConfig{
			PageSize: 6,
			MaxSize:  100,
		},
	}
}

// defaultsFor adjusts the defaults per environment. Development logs in the
// human-readable console format.
func defaultsFor(environment Environment) *Config {
	cfg := Default()
	if environment == Development {
		cfg.Logging.Format = "console"
	}
	return cfg
}

// envSections maps environment variable prefixes to config sections, longest
// prefix first.
var envSections = []struct {
	prefix  string
	section string
}{
	{"RATE_LIMIT_", "rate_limit"},
	{"PAGINATION_", "pagination"},
	{"STORAGE_", "storage"},
	{"SERVER_", "server"},
	{"REDIS_", "redis"},
	{"CORS_", "cors"},
	{"JWT_", "jwt"},
	{"LOG_", "logging"},
	{"DB_", "database"},
}

// secretKeys maps Docker secret file names to config keys.
var secretKeys = map[string]string{
	"db_user":               "database.user",
	"db_password":           "database.password",
	"jwt_secret":            "jwt.secret",
	"redis_password":        "redis.password",
	"redis_url":             "redis.url",
	"aws_access_key_id":     "storage.s3_access_key_id",
	"aws_secret_access_key": "storage.s3_secret_access_key",
}

// ciSecrets are the GitHub Actions secrets consulted in the CI environment.
var ciSecrets = map[string]string{
	"TEST_DB_PASSWORD":    "database.password",
	"TEST_JWT_SECRET":     "jwt.secret",
	"TEST_REDIS_PASSWORD": "redis.password",
	"TEST_REDIS_URL":      "redis.url",
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// environment variables and secrets, then validates it.
func LoadConfig() (*Config, error) {
	environment := GetEnvironment()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultsFor(environment), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := loadSecrets(k, environment); err != nil {
		return nil, err
	}

	if err := splitListValues(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := ValidateConfig(cfg, environment); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envKey turns DB_SSL_MODE into database.ssl_mode. Unknown variables are
// ignored.
func envKey(name string) string {
	for _, s := range envSections {
		if strings.HasPrefix(name, s.prefix) {
			field := strings.ToLower(strings.TrimPrefix(name, s.prefix))
			if field == "" {
				return ""
			}
			return s.section + "." + field
		}
	}
	return ""
}

// listKeys hold slices that arrive from the environment as comma-separated
// strings.
var listKeys = []string{"cors.allowed_origins"}

func splitListValues(k *koanf.Koanf) error {
	for _, key := range listKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var values []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		if err := k.Set(key, values); err != nil {
			return fmt.Errorf("failed to split %s: %w", key, err)
		}
	}
	return nil
}

func loadSecrets(k *koanf.Koanf, environment Environment) error {
	if environment == CI {
		for name, key := range ciSecrets {
			if v := os.Getenv(name); v != "" {
				if err := k.Set(key, v); err != nil {
					return fmt.Errorf("failed to apply %s: %w", name, err)
				}
			}
		}
		return nil
	}

	for name, key := range secretKeys {
		v := readSecret(name)
		if v == "" {
			continue
		}
		if err := k.Set(key, v); err != nil {
			return fmt.Errorf("failed to apply secret %s: %w", name, err)
		}
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	d := c.Database
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DatabaseURL returns the connection string in URL form, as lib/pq accepts it.
func (c *Config) DatabaseURL() string {
	d := c.Database
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// Address is the listen address of the HTTP server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisEnabled reports whether a redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != "" || c.Redis.Host != ""
}
