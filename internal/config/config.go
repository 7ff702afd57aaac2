// Package config loads bpm settings from defaults, a TOML file, a .env file
// and the environment, in increasing order of precedence. Command-line flags
// are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/installer"
	"github.com/badtechnologies/bpm/pkg/source"
)

// Environment variables read by [Load].
const (
	EnvRepo    = "BPM_REPO"
	EnvExecDir = "BPM_EXEC_DIR"
	EnvBaseURL = "BPM_BASE_URL"
	EnvTimeout = "BPM_TIMEOUT"
	EnvRetries = "BPM_RETRIES"
)

// Duration is a time.Duration written as a string such as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the settings shared by all commands.
type Config struct {
	Repo    string   `toml:"repo"`     // "owner/repo/branch"
	ExecDir string   `toml:"exec_dir"` // managed executable directory
	BaseURL string   `toml:"base_url"` // raw-content host
	Timeout Duration `toml:"timeout"`  // per-request timeout
	Retries int      `toml:"retries"`  // extra attempts for network errors and 5xx

	// Path is the config file that was read, if any.
	Path string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Repo:    source.DefaultRepo,
		ExecDir: installer.DefaultDir,
		BaseURL: source.DefaultBaseURL,
		Timeout: Duration{source.DefaultTimeout},
	}
}

// DefaultPath returns the per-user config file location, typically
// ~/.config/bpm/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bpm", "config.toml")
}

// Load builds the configuration. When path is empty the file at
// [DefaultPath] is read if it exists; an explicitly named file must exist.
// Variables from a .env file in the working directory are loaded into the
// environment without overriding variables that are already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvRepo)); v != "" {
		c.Repo = v
	}
	if v := strings.TrimSpace(getenv(EnvExecDir)); v != "" {
		c.ExecDir = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration{d}
	}
	if v := strings.TrimSpace(getenv(EnvRetries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRetries, err)
		}
		c.Retries = n
	}
	return nil
}

// Coordinates parses Repo.
func (c *Config) Coordinates() (source.Coordinates, error) {
	return source.ParseCoordinates(c.Repo)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := c.Coordinates(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ExecDir) == "" {
		return errors.New("exec_dir cannot be empty")
	}
	if err := bpmerrors.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base_url %q: %w", c.BaseURL, err)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	return nil
}
