package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/plugforge/plugforge/internal/adapter"
)

// Config holds all configuration for plugforge
type Config struct {
	Generation struct {
		SpecFile  string   `env:"PLUGFORGE_SPEC_FILE"`
		OutputDir string   `env:"PLUGFORGE_OUTPUT_DIR" envDefault:"./dist" validate:"required"`
		Platforms []string `env:"PLUGFORGE_PLATFORMS" envSeparator:"," validate:"platforms"`
		AutoHeal  bool     `env:"PLUGFORGE_AUTO_HEAL" envDefault:"false"`
	}

	Cache struct {
		MaxSize int `env:"PLUGFORGE_CACHE_SIZE" envDefault:"256" validate:"min=16"`
	}

	Watch struct {
		Debounce time.Duration `env:"PLUGFORGE_WATCH_DEBOUNCE" envDefault:"300ms"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=json text"`
	}
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	validator := validator.New()

	if err := validator.RegisterValidation("platforms", validatePlatforms); err != nil {
		return fmt.Errorf("failed to register platforms validation: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validatePlatforms accepts registry platform names; blank entries are ignored
func validatePlatforms(fl validator.FieldLevel) bool {
	platforms := fl.Field().Interface().([]string)
	for _, name := range platforms {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !slices.Contains(adapter.PlatformNames, name) {
			return false
		}
	}
	return true
}

// validateCustomRules performs additional validation beyond struct tags
func validateCustomRules(cfg *Config) error {
	if cfg.Watch.Debounce < 10*time.Millisecond {
		return fmt.Errorf("watch debounce must be at least 10ms")
	}
	return nil
}

// PlatformList returns the configured platforms with blanks and whitespace removed
func (cfg *Config) PlatformList() []string {
	var names []string
	for _, name := range cfg.Generation.Platforms {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			case "platforms":
				messages = append(messages, fmt.Sprintf("%s contains an unknown platform (known: %s)",
					e.Field(), strings.Join(adapter.PlatformNames, ", ")))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
