package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
	Features FeatureConfig  `mapstructure:"features"`
	Theme    ThemeConfig    `mapstructure:"theme"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	TokenKey         string `mapstructure:"token_key"`
	TokenExpiryHours int    `mapstructure:"token_expiry_hours"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type FeatureConfig struct {
	EnableDebug     bool `mapstructure:"enable_debug"`
	EnableAnalytics bool `mapstructure:"enable_analytics"`
	MockAPI         bool `mapstructure:"mock_api"`
}

type ThemeConfig struct {
	DefaultTheme   string `mapstructure:"default_theme"`
	EnableDarkMode bool   `mapstructure:"enable_dark_mode"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	// Path to the persistent client-state file. Empty means the caller
	// picks a location (the CLI defaults to one under the home directory).
	Path string `mapstructure:"path"`
}

type RealtimeConfig struct {
	ReconnectBase time.Duration `mapstructure:"reconnect_base"`
	ReconnectMax  time.Duration `mapstructure:"reconnect_max"`
}

const envPrefix = "TASKCLIENT"

// Load reads configuration from the environment with sensible defaults.
// Every key is overridable via TASKCLIENT_<SECTION>_<KEY>.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8081")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("auth.token_key", "taskmanagement_token")
	v.SetDefault("auth.token_expiry_hours", 24)

	v.SetDefault("app.name", "Task Management System")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("features.enable_debug", false)
	v.SetDefault("features.enable_analytics", false)
	v.SetDefault("features.mock_api", false)

	v.SetDefault("theme.default_theme", "light")
	v.SetDefault("theme.enable_dark_mode", true)

	v.SetDefault("logging.level", "info")

	v.SetDefault("storage.path", "")

	v.SetDefault("realtime.reconnect_base", time.Second)
	v.SetDefault("realtime.reconnect_max", 30*time.Second)
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}

// WSBaseURL derives the push-channel endpoint from the API base URL.
func (c *Config) WSBaseURL() string {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
