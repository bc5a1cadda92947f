package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// requiredSecrets lists values that must not stay empty per environment.
var requiredSecrets = map[Environment][]string{
	Development: {"jwt.secret"},
	Test:        {"jwt.secret"},
	CI:          {"jwt.secret", "database.password"},
	Production:  {"jwt.secret", "database.password"},
}

var sslModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// ValidateConfig checks if the configuration meets the requirements for the given environment
func ValidateConfig(cfg *Config, env Environment) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	for _, key := range requiredSecrets[env] {
		if secretValue(cfg, key) == "" {
			add(key, fmt.Sprintf("is required in %s environment", env))
		}
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		add("server.port", fmt.Sprintf("invalid port %q", cfg.Server.Port))
	}
	if cfg.Database.Host == "" {
		add("database.host", "is required")
	}
	if cfg.Database.Name == "" {
		add("database.name", "is required")
	}
	if !sslModes[cfg.Database.SSLMode] {
		add("database.ssl_mode", fmt.Sprintf("unsupported mode %q", cfg.Database.SSLMode))
	}
	if cfg.JWT.TTL <= 0 {
		add("jwt.ttl", "must be positive")
	}

	switch cfg.Storage.Driver {
	case StorageLocal:
		if cfg.Storage.LocalDir == "" {
			add("storage.local_dir", "is required for the local driver")
		}
	case StorageS3:
		if cfg.Storage.S3Bucket == "" {
			add("storage.s3_bucket", "is required for the s3 driver")
		}
	default:
		add("storage.driver", fmt.Sprintf("unknown driver %q", cfg.Storage.Driver))
	}

	if cfg.RateLimit.RecipeCreatesPerHour < 0 {
		add("rate_limit.recipe_creates_per_hour", "must not be negative")
	}
	if cfg.Pagination.PageSize < 1 {
		add("pagination.page_size", "must be at least 1")
	}
	if cfg.Pagination.MaxSize < cfg.Pagination.PageSize {
		add("pagination.max_size", "must not be smaller than page_size")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func secretValue(cfg *Config, key string) string {
	switch key {
	case "jwt.secret":
		return cfg.JWT.Secret
	case "database.password":
		return cfg.Database.Password
	}
	return ""
}
