package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dotcommander/provscore/internal/authz"
	"github.com/dotcommander/provscore/internal/logging"
)

// Config represents the provscore configuration
type Config struct {
	DBPath     string       `mapstructure:"db"`
	DataDir    string       `mapstructure:"dataDir"`
	Format     string       `mapstructure:"format"`
	LogLevel   string       `mapstructure:"logLevel"`
	Verbose    bool         `mapstructure:"verbose"`
	User       string       `mapstructure:"user"`
	Role       string       `mapstructure:"role"`
	ProviderID string       `mapstructure:"providerId"`
	Notify     NotifyConfig `mapstructure:"notify"`
}

// NotifyConfig selects and configures the notification channel
type NotifyConfig struct {
	Driver          string `mapstructure:"driver"`
	SlackToken      string `mapstructure:"slackToken"`
	DefaultChannel  string `mapstructure:"defaultChannel"`
	AdminChannel    string `mapstructure:"adminChannel"`
	RegistrationURL string `mapstructure:"registrationUrl"`
}

// Notification drivers.
const (
	DriverLog   = "log"
	DriverSlack = "slack"
	DriverNone  = "none"
)

// configPaths are searched in order when no --config file is given.
var configPaths = []string{".provscorerc.json", ".provscorerc.yaml", ".provscorerc.yml"}

// LoadConfig loads configuration from .env, an rc file, PROVSCORE_*
// environment variables and flags bound to viper.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	viper.SetDefault("db", "provscore.db")
	viper.SetDefault("dataDir", "")
	viper.SetDefault("format", "console")
	viper.SetDefault("logLevel", "warn")
	viper.SetDefault("verbose", false)
	viper.SetDefault("user", os.Getenv("USER"))
	viper.SetDefault("role", string(authz.RoleEvaluator))
	viper.SetDefault("providerId", "")
	viper.SetDefault("notify.driver", DriverLog)
	viper.SetDefault("notify.slackToken", "")
	viper.SetDefault("notify.defaultChannel", "")
	viper.SetDefault("notify.adminChannel", "")
	viper.SetDefault("notify.registrationUrl", "")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		for _, path := range configPaths {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
			break
		}
	}

	viper.SetEnvPrefix("PROVSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("notify.slackToken", "PROVSCORE_NOTIFY_SLACKTOKEN", "SLACK_BOT_TOKEN")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Format != "console" && config.Format != "json" {
		return fmt.Errorf("invalid format: %s. Must be 'console' or 'json'", config.Format)
	}

	if strings.TrimSpace(config.DBPath) == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if !logging.ValidLevel(config.LogLevel) {
		return fmt.Errorf("invalid log level: %s. Must be 'debug', 'info', 'warn' or 'error'", config.LogLevel)
	}

	if _, ok := authz.ParseRole(config.Role); !ok {
		return fmt.Errorf("invalid role: %s. Must be 'admin', 'evaluator', 'provider' or 'viewer'", config.Role)
	}
	if config.Role == string(authz.RoleProvider) && config.ProviderID == "" {
		return fmt.Errorf("role 'provider' requires a provider id")
	}

	switch config.Notify.Driver {
	case DriverLog, DriverNone:
	case DriverSlack:
		if config.Notify.SlackToken == "" {
			return fmt.Errorf("notify driver 'slack' requires a slack token")
		}
	default:
		return fmt.Errorf("invalid notify driver: %s. Must be 'log', 'slack' or 'none'", config.Notify.Driver)
	}

	return nil
}

// EffectiveLogLevel is LogLevel, raised to debug by --verbose.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

// Actor returns the acting user described by the configuration.
func (c *Config) Actor() authz.Actor {
	role, _ := authz.ParseRole(c.Role)
	return authz.Actor{ID: c.User, Role: role, ProviderID: c.ProviderID}
}
