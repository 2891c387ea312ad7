package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./malogs")

	viper.SetDefault("engine.debounceMs", 300)

	viper.SetDefault("unify.holeAreaRatio", 0.001)
	viper.SetDefault("unify.holeMinPerimeter", 100.0)
	viper.SetDefault("unify.simplifyTolerance", 0.0)

	viper.SetDefault("drivetime.serviceUrl", "http://localhost:6080/network")
	viper.SetDefault("drivetime.apiKey", "")
	viper.SetDefault("drivetime.travelMode", "driving")
	viper.SetDefault("drivetime.metersPerMinute", 800)
	viper.SetDefault("drivetime.cacheEnabled", true)

	viper.SetDefault("reflayer.serviceUrl", "http://localhost:6080/layers")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "marketarea")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "marketarea-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetConfigName("marketarea.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}
