// defaults.go default values for viper config keys
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets defaults for each configuration parameter.
// Values mirror the embedded config.yaml.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("tempdir", "")

	viper.SetDefault("log.level", "info")

	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.admins", "")
	viper.SetDefault("telegram.polltimeout", 60)

	viper.SetDefault("plantnet.apikey", "")
	viper.SetDefault("plantnet.project", "all")
	viper.SetDefault("plantnet.endpoint", "https://my-api.plantnet.org/v2/identify")
	viper.SetDefault("plantnet.timeout", 30*time.Second)

	viper.SetDefault("gemini.apikey", "")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.timeout", 30*time.Second)
	viper.SetDefault("gemini.cachettl", 6*time.Hour)

	viper.SetDefault("store.usersfile", "users_data.json")
	viper.SetDefault("store.plantsfile", "plants_data.json")

	viper.SetDefault("observability.enabled", false)
	viper.SetDefault("observability.listen", "0.0.0.0:8090")
}
