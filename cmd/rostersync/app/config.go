package app

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fleetops/rostersync/pkg/samsara"
)

// Config holds the application configuration loaded from flags, environment
// variables, .env files, and an optional config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	ConfigFile string

	// Remote API
	APIToken      string
	BaseURL       string
	MaxAttempts   int
	MinIntervalMS int
	PageLimit     int

	// Sync defaults; individual commands expose flags that override these.
	OutDir         string
	StatePath      string
	WarehousesPath string
	RetentionDays  int
	RadiusMeters   int

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration in order of precedence: command-line flags
// (applied later by cobra), environment variables, .env files, config file,
// defaults.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	viper.SetDefault("max_attempts", 5)
	viper.SetDefault("min_interval_ms", 200)
	viper.SetDefault("retention_days", 30)
	viper.SetDefault("radius_m", 50)
	viper.SetDefault("out_dir", "out")

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rostersync")
	}
	// Missing config file is fine; env and defaults carry the run.
	_ = viper.ReadInConfig()

	return &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		APIToken:      viper.GetString(samsara.EnvAPIToken),
		BaseURL:       viper.GetString("samsara_base_url"),
		MaxAttempts:   viper.GetInt("max_attempts"),
		MinIntervalMS: viper.GetInt("min_interval_ms"),
		PageLimit:     viper.GetInt("page_limit"),

		OutDir:         viper.GetString("out_dir"),
		StatePath:      viper.GetString("state_path"),
		WarehousesPath: viper.GetString("warehouses"),
		RetentionDays:  viper.GetInt("retention_days"),
		RadiusMeters:   viper.GetInt("radius_m"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// UpdateFromFlags applies parsed persistent flag values so they take
// precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env files; .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, def string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}
