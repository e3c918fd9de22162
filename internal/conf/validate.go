// validate.go - settings validation for the plant bot
package conf

import (
	"log/slog"
	"os"

	"github.com/t-lnarr/plant/internal/errors"
)

// ValidateSettings checks required fields and normalizes derived values.
// It is called from Load after unmarshaling.
func ValidateSettings(settings *Settings) error {
	adminIDs, err := ParseAdminIDs(settings.Telegram.Admins)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryValidation).
			Context("field", "telegram.admins").
			Component("conf").
			Build()
	}
	settings.Telegram.adminIDs = adminIDs

	if settings.Telegram.PollTimeout <= 0 {
		return errors.Newf("telegram poll timeout must be positive, got %d", settings.Telegram.PollTimeout).
			Category(errors.CategoryValidation).
			Context("field", "telegram.polltimeout").
			Component("conf").
			Build()
	}

	if settings.PlantNet.Timeout <= 0 {
		return errors.Newf("plantnet timeout must be positive, got %s", settings.PlantNet.Timeout).
			Category(errors.CategoryValidation).
			Context("field", "plantnet.timeout").
			Component("conf").
			Build()
	}

	if settings.Gemini.Timeout <= 0 {
		return errors.Newf("gemini timeout must be positive, got %s", settings.Gemini.Timeout).
			Category(errors.CategoryValidation).
			Context("field", "gemini.timeout").
			Component("conf").
			Build()
	}

	if settings.Log.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(settings.Log.Level)); err != nil {
			return errors.Newf("unknown log level %q", settings.Log.Level).
				Category(errors.CategoryValidation).
				Context("field", "log.level").
				Component("conf").
				Build()
		}
	}

	if settings.TempDir == "" {
		settings.TempDir = os.TempDir()
	}

	return nil
}

// ValidateSecrets checks that all deployment secrets required for serving are present.
// Kept separate from ValidateSettings so tests and offline commands can load
// a configuration without secrets.
func ValidateSecrets(settings *Settings) error {
	if settings.Telegram.Token == "" {
		return errors.Newf("telegram bot token is required").
			Category(errors.CategoryConfiguration).
			Context("field", "telegram.token").
			Component("conf").
			Build()
	}
	if settings.PlantNet.APIKey == "" {
		return errors.Newf("PlantNet API key is required").
			Category(errors.CategoryConfiguration).
			Context("field", "plantnet.apikey").
			Component("conf").
			Build()
	}
	if settings.Gemini.APIKey == "" {
		return errors.Newf("Gemini API key is required").
			Category(errors.CategoryConfiguration).
			Context("field", "gemini.apikey").
			Component("conf").
			Build()
	}
	return nil
}
