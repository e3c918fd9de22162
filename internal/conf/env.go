// env.go - Environment variable configuration and validation for the plant bot
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"telegram.token", "TELEGRAM_BOT_TOKEN", validateEnvNonEmpty},
		{"telegram.admins", "TELEGRAM_ADMIN_IDS", validateEnvAdminIDs},
		{"plantnet.apikey", "PLANTNET_API_KEY", validateEnvNonEmpty},
		{"plantnet.project", "PLANTNET_PROJECT", validateEnvNonEmpty},
		{"gemini.apikey", "GEMINI_API_KEY", validateEnvNonEmpty},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if value, ok := os.LookupEnv(binding.EnvVar); ok {
				if err := binding.Validate(value); err != nil {
					return fmt.Errorf("invalid value for %s: %w", binding.EnvVar, err)
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment binding warnings: %s", strings.Join(warnings, "; "))
	}

	return nil
}

func validateEnvNonEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}

func validateEnvAdminIDs(value string) error {
	_, err := ParseAdminIDs(value)
	return err
}

// ParseAdminIDs parses a comma-separated list of Telegram user ids.
// Empty input yields an empty allow-list.
func ParseAdminIDs(value string) ([]int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin id %q is not a valid integer", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
