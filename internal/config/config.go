package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AGENT_BACKEND_URL
const EnvPrefix = "AGENT"

// Config holds all agent configuration
type Config struct {
	// Backend connection
	BackendURL string `mapstructure:"backend_url"`
	AuthToken  string `mapstructure:"auth_token"`

	// Poll interval in seconds
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`

	// Root for per-task scratch directories; empty means the OS temp dir
	WorkDir string `mapstructure:"work_dir"`

	// Report aborted tasks to the backend log endpoint
	ReportEvents bool `mapstructure:"report_events"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// TLS
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BackendURL:        "https://localhost:8000/api/v1/agent",
		HeartbeatInterval: 60,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads configuration from defaults, an optional .env file, the config
// file and the environment, in increasing order of precedence. An empty path
// searches the platform config dir and the working directory for "config.*";
// a missing file is only an error when path is given explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("auth_token", d.AuthToken)
	v.SetDefault("heartbeat_interval", d.HeartbeatInterval)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("report_events", d.ReportEvents)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("insecure_skip_verify", d.InsecureSkipVerify)
}

// Validate checks that the configuration can drive the poll loop
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_url %q has no host", c.BackendURL)
	}

	if c.HeartbeatInterval < 1 {
		return fmt.Errorf("heartbeat_interval must be at least 1 second, got %d", c.HeartbeatInterval)
	}

	if strings.TrimSpace(c.AuthToken) == "" {
		return errors.New("auth_token is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// Interval returns the heartbeat interval as a duration
func (c *Config) Interval() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

// ScratchRoot returns the directory under which per-task scratch dirs are created
func (c *Config) ScratchRoot() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return os.TempDir()
}

// getConfigDir returns the platform-specific config directory
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "ZLDAP", "Agent")
	case "darwin":
		return "/Library/Application Support/ZLDAP/Agent"
	default: // Linux and others
		return "/etc/zldap-agent"
	}
}
