// Package config handles loading livesync.toml configuration files.
//
// Settings merge from two locations: the global file at
// ~/.config/livesync/config.toml and a livesync.toml in the working
// directory. Project values win over global ones field by field.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the livesync.toml configuration file.
type Config struct {
	Server    Server    `toml:"server"`
	Database  Database  `toml:"database"`
	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"ratelimit"`
	Client    Client    `toml:"client"`
}

// Server contains serve-related configuration.
type Server struct {
	// Listen is the address the HTTP server binds to.
	Listen string `toml:"listen"`

	// DevRoutes enables the /dev/seed and /dev/reset endpoints.
	// Never enable this in production.
	DevRoutes bool `toml:"dev-routes"`

	// Verbose enables debug-level logging.
	Verbose bool `toml:"verbose"`
}

// Database contains backing-store configuration.
type Database struct {
	// Path is the SQLite database file location.
	Path string `toml:"path"`
}

// Auth contains session-token configuration.
type Auth struct {
	// Secret signs session tokens. Required to serve.
	Secret string `toml:"secret"`

	// TokenTTL is the session token lifetime, e.g. "24h".
	TokenTTL string `toml:"token-ttl"`
}

// RateLimit contains the sliding-window limits applied by the server.
type RateLimit struct {
	// APILimit is the number of API requests allowed per APIWindow.
	APILimit int `toml:"api-limit"`

	// APIWindow is the API window length, e.g. "1m".
	APIWindow string `toml:"api-window"`

	// AuthLimit is the number of auth-sensitive requests per AuthWindow.
	AuthLimit int `toml:"auth-limit"`

	// AuthWindow is the auth window length, e.g. "15m".
	AuthWindow string `toml:"auth-window"`
}

// Client contains defaults for CLI commands that talk to a server.
type Client struct {
	// Server is the base URL of the livesync server.
	Server string `toml:"server"`

	// Token is the bearer token presented by the CLI.
	Token string `toml:"token"`
}

// Defaults used when neither config file defines a value.
const (
	DefaultListen    = ":8347"
	DefaultDBFile    = "livesync.db"
	DefaultServerURL = "http://localhost:8347"

	DefaultAPILimit   = 100
	DefaultAPIWindow  = time.Minute
	DefaultAuthLimit  = 5
	DefaultAuthWindow = 15 * time.Minute
)

// ProjectFile is the config file name looked up in the working directory.
const ProjectFile = "livesync.toml"

// Load loads configuration from dir and the global config file.
// Returns a config of defaults if no config files exist.
func Load(dir string) (*Config, error) {
	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}

	return mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta), nil
}

func globalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "livesync", "config.toml"), nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Server.Listen = mergeString(projectMeta.IsDefined("server", "listen"), projectCfg.Server.Listen, globalCfg.Server.Listen)
	merged.Server.DevRoutes = mergeBool(projectMeta.IsDefined("server", "dev-routes"), projectCfg.Server.DevRoutes, globalCfg.Server.DevRoutes)
	merged.Server.Verbose = mergeBool(projectMeta.IsDefined("server", "verbose"), projectCfg.Server.Verbose, globalCfg.Server.Verbose)
	merged.Database.Path = mergeString(projectMeta.IsDefined("database", "path"), projectCfg.Database.Path, globalCfg.Database.Path)
	merged.Auth.Secret = mergeString(projectMeta.IsDefined("auth", "secret"), projectCfg.Auth.Secret, globalCfg.Auth.Secret)
	merged.Auth.TokenTTL = mergeString(projectMeta.IsDefined("auth", "token-ttl"), projectCfg.Auth.TokenTTL, globalCfg.Auth.TokenTTL)
	merged.RateLimit.APILimit = mergeInt(projectMeta.IsDefined("ratelimit", "api-limit"), projectCfg.RateLimit.APILimit, globalCfg.RateLimit.APILimit)
	merged.RateLimit.APIWindow = mergeString(projectMeta.IsDefined("ratelimit", "api-window"), projectCfg.RateLimit.APIWindow, globalCfg.RateLimit.APIWindow)
	merged.RateLimit.AuthLimit = mergeInt(projectMeta.IsDefined("ratelimit", "auth-limit"), projectCfg.RateLimit.AuthLimit, globalCfg.RateLimit.AuthLimit)
	merged.RateLimit.AuthWindow = mergeString(projectMeta.IsDefined("ratelimit", "auth-window"), projectCfg.RateLimit.AuthWindow, globalCfg.RateLimit.AuthWindow)
	merged.Client.Server = mergeString(projectMeta.IsDefined("client", "server"), projectCfg.Client.Server, globalCfg.Client.Server)
	merged.Client.Token = mergeString(projectMeta.IsDefined("client", "token"), projectCfg.Client.Token, globalCfg.Client.Token)

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func mergeBool(projectDefined bool, projectValue, globalValue bool) bool {
	if projectDefined {
		return projectValue
	}
	return globalValue
}

func mergeInt(projectDefined bool, projectValue, globalValue int) int {
	if projectDefined {
		return projectValue
	}
	return globalValue
}

// ListenAddr returns the configured listen address or the default.
func (c *Config) ListenAddr() string {
	if c.Server.Listen != "" {
		return c.Server.Listen
	}
	return DefaultListen
}

// DatabasePath returns the configured database path, or the default
// file under the user's data directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "livesync", DefaultDBFile), nil
}

// ServerURL returns the configured client server URL or the default.
func (c *Config) ServerURL() string {
	if c.Client.Server != "" {
		return c.Client.Server
	}
	return DefaultServerURL
}

// TokenTTL parses the configured token lifetime, defaulting when unset.
func (c *Config) TokenTTL() (time.Duration, error) {
	return parseWindow(c.Auth.TokenTTL, 24*time.Hour)
}

// APIWindow parses the configured API rate-limit window.
func (c *Config) APIWindow() (time.Duration, error) {
	return parseWindow(c.RateLimit.APIWindow, DefaultAPIWindow)
}

// AuthWindow parses the configured auth rate-limit window.
func (c *Config) AuthWindow() (time.Duration, error) {
	return parseWindow(c.RateLimit.AuthWindow, DefaultAuthWindow)
}

// APILimitOrDefault returns the configured API request limit.
func (c *Config) APILimitOrDefault() int {
	if c.RateLimit.APILimit > 0 {
		return c.RateLimit.APILimit
	}
	return DefaultAPILimit
}

// AuthLimitOrDefault returns the configured auth request limit.
func (c *Config) AuthLimitOrDefault() int {
	if c.RateLimit.AuthLimit > 0 {
		return c.RateLimit.AuthLimit
	}
	return DefaultAuthLimit
}

func parseWindow(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", value)
	}
	return parsed, nil
}
