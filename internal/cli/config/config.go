package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fzdarsky/ccclogin/internal/cli/output"
	"github.com/fzdarsky/ccclogin/internal/logging"
	"github.com/fzdarsky/ccclogin/pkg/ccc"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"

	envServer     = "CCC_SERVER"
	envUsername   = "CCC_USERNAME"
	envPassword   = "CCC_PASSWORD"
	envCACert     = "CCC_CA_CERT"
	envInsecure   = "CCC_INSECURE"
	envTimeout    = "CCC_TIMEOUT"
	envClientType = "CCC_CLIENT_TYPE"
	envEndpointOS = "CCC_ENDPOINT_OS"
	envLogLevel   = "CCC_LOG_LEVEL"
	envLogFormat  = "CCC_LOG_FORMAT"
	envOutput     = "CCC_OUTPUT"

	// DefaultTimeout bounds a whole login attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultOutput is the result format.
	DefaultOutput = "yaml"
)

// Duration is a time.Duration read from YAML as a string such as "45s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the configuration for the ccclogin CLI.
type Config struct {
	Server             string   `yaml:"server"`
	Username           string   `yaml:"username,omitempty"`
	CACert             string   `yaml:"ca_cert,omitempty"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify,omitempty"`
	Timeout            Duration `yaml:"timeout,omitempty"`
	ClientType         string   `yaml:"client_type,omitempty"`
	EndpointOS         string   `yaml:"endpoint_os,omitempty"`
	LogLevel           string   `yaml:"log_level,omitempty"`
	LogFormat          string   `yaml:"log_format,omitempty"`
	Output             string   `yaml:"output,omitempty"`

	// Password is only ever taken from the environment or a prompt.
	Password string `yaml:"-"`
}

// Flags carries command-line values. Zero values mean "not set".
type Flags struct {
	Server   string
	Username string
	Password string
	CACert   string
	Insecure bool
	Timeout  time.Duration
	Output   string
}

// Load loads configuration from file and environment, on top of defaults.
// Precedence order (highest to lowest):
// 1. Environment variables
// 2. Config file
// 3. Defaults
//
// Command-line flags are applied afterwards with ApplyFlags.
func Load() (*Config, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(configDir, configFileName))
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	if err := cfg.loadFromFile(path); err != nil {
		// The config file is optional
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Timeout:    Duration(DefaultTimeout),
		ClientType: ccc.DefaultClientType,
		EndpointOS: ccc.DefaultEndpointOS,
		LogLevel:   string(logging.LevelWarn),
		LogFormat:  string(logging.FormatHuman),
		Output:     DefaultOutput,
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is in the user config directory
	if err != nil {
		return err
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.merge(&fileConfig)
	return nil
}

// merge copies the non-zero values of other into c.
func (c *Config) merge(other *Config) {
	setString(&c.Server, other.Server)
	setString(&c.Username, other.Username)
	setString(&c.CACert, other.CACert)
	setString(&c.ClientType, other.ClientType)
	setString(&c.EndpointOS, other.EndpointOS)
	setString(&c.LogLevel, other.LogLevel)
	setString(&c.LogFormat, other.LogFormat)
	setString(&c.Output, other.Output)
	if other.InsecureSkipVerify {
		c.InsecureSkipVerify = true
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
}

func (c *Config) loadFromEnv() error {
	setString(&c.Server, os.Getenv(envServer))
	setString(&c.Username, os.Getenv(envUsername))
	setString(&c.Password, os.Getenv(envPassword))
	setString(&c.CACert, os.Getenv(envCACert))
	setString(&c.ClientType, os.Getenv(envClientType))
	setString(&c.EndpointOS, os.Getenv(envEndpointOS))
	setString(&c.LogLevel, os.Getenv(envLogLevel))
	setString(&c.LogFormat, os.Getenv(envLogFormat))
	setString(&c.Output, os.Getenv(envOutput))

	if s := os.Getenv(envInsecure); s != "" {
		insecure, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", envInsecure, s, err)
		}
		c.InsecureSkipVerify = insecure
	}

	if s := os.Getenv(envTimeout); s != "" {
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", envTimeout, s, err)
		}
		c.Timeout = Duration(timeout)
	}

	return nil
}

// ApplyFlags applies command-line values, the highest priority layer.
func (c *Config) ApplyFlags(f Flags) {
	setString(&c.Server, f.Server)
	setString(&c.Username, f.Username)
	setString(&c.Password, f.Password)
	setString(&c.CACert, f.CACert)
	setString(&c.Output, f.Output)
	if f.Insecure {
		c.InsecureSkipVerify = true
	}
	if f.Timeout != 0 {
		c.Timeout = Duration(f.Timeout)
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server != "" {
		if err := validateServer(c.Server); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid timeout %s: must be positive", time.Duration(c.Timeout)))
	}

	if c.CACert != "" {
		if _, err := os.Stat(c.CACert); err != nil {
			if os.IsNotExist(err) {
				result = multierror.Append(result, fmt.Errorf("CA certificate file not found: %s", c.CACert))
			} else {
				result = multierror.Append(result, fmt.Errorf("failed to access CA certificate file %s: %w", c.CACert, err))
			}
		}
		if c.InsecureSkipVerify {
			result = multierror.Append(result, errors.New("ca_cert and insecure_skip_verify are mutually exclusive"))
		}
	}

	if c.ClientType == "" {
		result = multierror.Append(result, errors.New("client_type must not be empty"))
	}
	if c.EndpointOS == "" {
		result = multierror.Append(result, errors.New("endpoint_os must not be empty"))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		result = multierror.Append(result, err)
	}

	if _, err := output.ParseFormat(c.Output); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// validateServer accepts "host" or "host:port" without scheme or path.
func validateServer(server string) error {
	if strings.Contains(server, "://") || strings.ContainsAny(server, "/ ") {
		return fmt.Errorf("invalid server %q: expected host or host:port", server)
	}

	host := server
	if h, port, err := net.SplitHostPort(server); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid server %q: port must be between 1 and 65535", server)
		}
		host = h
	}

	if host == "" {
		return fmt.Errorf("invalid server %q: missing host", server)
	}
	return nil
}

// RequireServer checks that a server is set and explains how to set one.
func (c *Config) RequireServer() error {
	if c.Server == "" {
		return fmt.Errorf("access-control server not specified\n"+
			"Use --server flag, %s environment variable, or add 'server:' to config file:\n"+
			"  Config file location: <UserConfigDir>/ccclogin/config.yaml\n"+
			"  Example: server: vpn.example.com", envServer)
	}
	return nil
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout)
}

// Save records the server and username (never the password) in the config
// file so later runs do not need --server. Everything else in the file is
// left as the user wrote it.
func (c *Config) Save() error {
	configDir, err := UserConfigDir()
	if err != nil {
		return err
	}
	if err := EnsureDir(configDir); err != nil {
		return err
	}
	return c.SaveTo(filepath.Join(configDir, configFileName))
}

// SaveTo is Save with an explicit path.
func (c *Config) SaveTo(path string) error {
	var fileConfig Config

	data, err := os.ReadFile(path) // #nosec G304 - path is in the user config directory
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read config file: %w", err)
	}

	setString(&fileConfig.Server, c.Server)
	setString(&fileConfig.Username, c.Username)

	data, err = yaml.Marshal(&fileConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
