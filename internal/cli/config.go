package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/transport"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyAPIURL     = "api_url"
	cfgKeyAPIToken   = "api_token"
	cfgKeyUsername   = "username"
	cfgKeyDataDir    = "data_dir"
	cfgKeyRecordType = "record_type"
	cfgKeyTimeout    = "timeout"
	cfgKeyMaxRetries = "max_retries"
	cfgKeyRetryDelay = "retry_delay"
	cfgKeyLogLevel   = "log_level"

	defaultRecordType = "Incident"
	defaultMaxRetries = 3
	defaultLogLevel   = "warn"
)

// envKeys are the config keys that DRIVER_<KEY> environment variables
// override. data_dir is resolved by the paths package instead.
var envKeys = []string{
	cfgKeyAPIURL,
	cfgKeyAPIToken,
	cfgKeyUsername,
	cfgKeyRecordType,
	cfgKeyTimeout,
	cfgKeyMaxRetries,
	cfgKeyRetryDelay,
	cfgKeyLogLevel,
}

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# driver CLI configuration

# DRIVER server, e.g. https://driver.example.org
api_url: ""

# API token and user name (prefer DRIVER_API_TOKEN in .env for the token)
api_token: ""
username: ""

# Record type whose current schema is used for new records
record_type: Incident

# Network policy
timeout: 30s
max_retries: 3
retry_delay: 500ms

# debug, info, warn or error
log_level: warn

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// loadConfig reads config.yaml from the config directory using Viper.
// It creates the config directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyRecordType, defaultRecordType)
	v.SetDefault(cfgKeyTimeout, transport.DefaultTimeout)
	v.SetDefault(cfgKeyMaxRetries, defaultMaxRetries)
	v.SetDefault(cfgKeyRetryDelay, transport.DefaultRetryDelay)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	for _, key := range envKeys {
		if err := v.BindEnv(key, "DRIVER_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// transportOptions reads the network settings.
func (a *app) transportOptions() (transport.Options, error) {
	opts := transport.Options{
		BaseURL:    a.cfg.GetString(cfgKeyAPIURL),
		Token:      a.cfg.GetString(cfgKeyAPIToken),
		Timeout:    a.cfg.GetDuration(cfgKeyTimeout),
		MaxRetries: a.cfg.GetInt(cfgKeyMaxRetries),
		RetryDelay: a.cfg.GetDuration(cfgKeyRetryDelay),
	}
	if opts.BaseURL == "" {
		return opts, fmt.Errorf("%s is not configured", cfgKeyAPIURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = transport.DefaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = transport.DefaultRetryDelay
	}
	if opts.Timeout > 10*time.Minute {
		return opts, fmt.Errorf("%s %s is too long", cfgKeyTimeout, opts.Timeout)
	}
	return opts, nil
}
