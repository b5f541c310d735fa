// Package config loads gh-search settings from a TOML file. Command-line
// flags are layered on top by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jparise/gh-search/internal/github"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/timeparse"
)

// Duration is a time.Duration written in TOML as a string such as "24h" or
// "7d".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := timeparse.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the full configuration.
type Config struct {
	GitHub  GitHub  `toml:"github"`
	Search  Search  `toml:"search"`
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Admin   Admin   `toml:"admin"`
	Log     Log     `toml:"log"`
}

type GitHub struct {
	// Token overrides the gh CLI's stored credentials.
	Token             string   `toml:"token"`
	Host              string   `toml:"host"`
	CacheDir          string   `toml:"cache_dir"`
	CacheTTL          Duration `toml:"cache_ttl"`
	DisableCache      bool     `toml:"disable_cache"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type Search struct {
	Jobs         int  `toml:"jobs"`
	RepoPageSize int  `toml:"repo_page_size"`
	CodePageSize int  `toml:"code_page_size"`
	FileDates    bool `toml:"file_dates"`
}

type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	PageSize       int      `toml:"page_size"`
	MaxSessions    int      `toml:"max_sessions"`
}

type Storage struct {
	// DataDir holds the SQLite database. Empty uses the user config
	// directory.
	DataDir string `toml:"data_dir"`

	// Disabled turns off history and feedback recording.
	Disabled bool `toml:"disabled"`
}

type Admin struct {
	// Users are user IDs granted admin access in addition to those marked
	// as admins in the user store.
	Users []string `toml:"users"`
}

type Log struct {
	Verbose bool `toml:"verbose"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		GitHub: GitHub{
			CacheTTL: Duration(24 * time.Hour),
		},
		Search: Search{
			Jobs:         search.DefaultJobs,
			RepoPageSize: search.DefaultRepoPageSize,
			CodePageSize: search.DefaultCodePageSize,
		},
		Server: Server{
			Addr:           "localhost:8080",
			AllowedOrigins: []string{"*"},
			PageSize:       20,
			MaxSessions:    1000,
		},
	}
}

// DefaultPath returns the configuration file location used when none is
// given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting config directory: %w", err)
	}
	return filepath.Join(dir, "gh-search", "config.toml"), nil
}

// Load reads the configuration at path over the defaults. A missing file is
// not an error unless the path was given explicitly. Unknown keys are.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Search.Jobs < 1 || c.Search.Jobs > 100 {
		return fmt.Errorf("search.jobs must be between 1 and 100, got %d", c.Search.Jobs)
	}
	if c.Search.RepoPageSize < 1 || c.Search.RepoPageSize > 100 {
		return fmt.Errorf("search.repo_page_size must be between 1 and 100, got %d", c.Search.RepoPageSize)
	}
	if c.Search.CodePageSize < 1 || c.Search.CodePageSize > 100 {
		return fmt.Errorf("search.code_page_size must be between 1 and 100, got %d", c.Search.CodePageSize)
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second cannot be negative")
	}
	if c.Server.PageSize < 1 {
		return fmt.Errorf("server.page_size must be positive, got %d", c.Server.PageSize)
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	return nil
}

// ClientOptions returns the GitHub client options.
func (c *Config) ClientOptions() github.ClientOptions {
	return github.ClientOptions{
		AuthToken:         c.GitHub.Token,
		Host:              c.GitHub.Host,
		CacheDir:          c.GitHub.CacheDir,
		CacheTTL:          time.Duration(c.GitHub.CacheTTL),
		DisableCache:      c.GitHub.DisableCache,
		RequestsPerSecond: c.GitHub.RequestsPerSecond,
	}
}

// AggregatorOptions returns the search aggregator options.
func (c *Config) AggregatorOptions() search.Options {
	return search.Options{
		Jobs:         c.Search.Jobs,
		RepoPageSize: c.Search.RepoPageSize,
		CodePageSize: c.Search.CodePageSize,
		FileDates:    c.Search.FileDates,
	}
}

// IsAdmin reports whether id is listed in admin.users.
func (c *Config) IsAdmin(id string) bool {
	for _, u := range c.Admin.Users {
		if u == id {
			return true
		}
	}
	return false
}
