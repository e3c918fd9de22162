// config.go: settings struct for the plant bot and functions to load and save the settings.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/t-lnarr/plant/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// TelegramSettings contains settings for the Telegram messaging surface.
type TelegramSettings struct {
	Token       string // bot token, runtime secret
	Admins      string // comma-separated admin user ids
	PollTimeout int    // long poll timeout in seconds

	adminIDs []int64 // parsed from Admins during validation
}

// PlantNetSettings contains settings for the PlantNet recognition service.
type PlantNetSettings struct {
	APIKey   string        // PlantNet API key
	Project  string        // project selector, e.g. "all"
	Endpoint string        // identify endpoint base URL
	Timeout  time.Duration // per-request timeout
}

// GeminiSettings contains settings for the generative advisory-text service.
type GeminiSettings struct {
	APIKey   string        // Gemini API key
	Model    string        // model name, e.g. "gemini-2.5-flash"
	Endpoint string        // generative language API base URL
	Timeout  time.Duration // per-request timeout
	CacheTTL time.Duration // care advice cache TTL, 0 disables caching
}

// StoreSettings contains settings for the flat-file counters store.
type StoreSettings struct {
	UsersFile  string // path of the recipient collection file
	PlantsFile string // path of the species collection file
}

// ObservabilitySettings contains settings for the Prometheus metrics endpoint.
type ObservabilitySettings struct {
	Enabled bool   // true to expose /metrics and /healthz
	Listen  string // listen address, e.g. "0.0.0.0:8090"
}

// LogSettings contains settings for the global log output.
type LogSettings struct {
	Level string // minimum level: debug, info, warn, error
}

// Settings is the root configuration of the application.
type Settings struct {
	Debug   bool   // true to enable debug output
	TempDir string // directory for downloaded photo files

	Log           LogSettings
	Telegram      TelegramSettings
	PlantNet      PlantNetSettings
	Gemini        GeminiSettings
	Store         StoreSettings
	Observability ObservabilitySettings
}

// AdminIDs returns the parsed administrator allow-list.
func (t *TelegramSettings) AdminIDs() []int64 {
	return t.adminIDs
}

// IsAdmin reports whether the given user id is on the administrator allow-list.
func (t *TelegramSettings) IsAdmin(id int64) bool {
	for _, admin := range t.adminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Environment variables override config file values
	if err := bindEnvVars(); err != nil {
		return fmt.Errorf("error binding environment variables: %w", err)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings saves the current settings to the configuration file.
// When no config file exists yet, it writes one to the preferred default path.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	if settingsInstance == nil {
		return errors.Newf("no settings loaded").
			Category(errors.CategoryState).
			Component("conf").
			Build()
	}
	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		configPaths, pathErr := GetDefaultConfigPaths()
		if pathErr != nil {
			return fmt.Errorf("error finding config file: %w", pathErr)
		}
		configPath = filepath.Join(configPaths[0], "config.yaml")
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("error creating directories for config file: %w", err)
		}
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first to ensure an atomic replace
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempName)
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}

// FindConfigFile locates the active config.yaml, if any.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return configFile, nil
		}
	}

	return "", errors.Newf("config.yaml not found in any default path").
		Category(errors.CategoryConfiguration).
		Component("conf").
		Build()
}

// GetDefaultConfigPaths returns a list of default configuration paths for the
// current operating system, preferring a path that already holds a config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Component("conf").
			Build()
	}

	configPaths := []string{
		".",
		filepath.Join(homeDir, ".config", "plantbot"),
		"/etc/plantbot",
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}
