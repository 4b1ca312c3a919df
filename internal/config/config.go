package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment overrides, applied after the config file.
const (
	EnvTargetEmail = "LABELFWD_TARGET_EMAIL"
	EnvLabelName   = "LABELFWD_LABEL_NAME"
	EnvPurpose     = "LABELFWD_PURPOSE"
)

// ErrMissing reports a required setting that is not set anywhere.
var ErrMissing = errors.New("required setting missing")

// Config holds all labelfwd configuration.
type Config struct {
	Forward  ForwardConfig  `toml:"forward"`
	Auth     AuthConfig     `toml:"auth"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
}

// ForwardConfig is what the forwarder needs: where mail comes from and
// where it goes.
type ForwardConfig struct {
	Destination string `toml:"destination"`
	Label       string `toml:"label"`
	Purpose     string `toml:"purpose"`
}

type AuthConfig struct {
	CredentialsPath string `toml:"credentials"`
	TokenStore      string `toml:"token_store"` // "file" or "keyring"
	TokenPath       string `toml:"token"`
	KeyringAccount  string `toml:"keyring_account"`
}

type ScheduleConfig struct {
	Every       Duration `toml:"every"`
	LockFile    string   `toml:"lock_file"`
	MetricsAddr string   `toml:"metrics_addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration decodes TOML strings such as "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func defaults() Config {
	dir := Dir()
	return Config{
		Auth: AuthConfig{
			CredentialsPath: filepath.Join(dir, "credentials.json"),
			TokenStore:      "file",
			TokenPath:       filepath.Join(dir, "token.json"),
			KeyringAccount:  "default",
		},
		Schedule: ScheduleConfig{
			LockFile: filepath.Join(os.TempDir(), "labelfwd.lock"),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads config from path, then applies environment overrides. A missing
// file yields defaults. If path is empty, only defaults and the environment
// are used.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvTargetEmail); ok {
		cfg.Forward.Destination = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLabelName); ok {
		cfg.Forward.Label = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPurpose); ok {
		cfg.Forward.Purpose = strings.TrimSpace(v)
	}
}

// Validate checks the settings every forwarding command needs. Errors wrap
// ErrMissing when a value is absent.
func (f ForwardConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Destination) == "" {
		missing = append(missing, "destination ("+EnvTargetEmail+")")
	}
	if strings.TrimSpace(f.Label) == "" {
		missing = append(missing, "label ("+EnvLabelName+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	addr, err := mail.ParseAddress(f.Destination)
	if err != nil {
		return fmt.Errorf("invalid destination %q: %w", f.Destination, err)
	}
	if addr.Name != "" {
		return fmt.Errorf("destination %q must be a bare address", f.Destination)
	}
	return nil
}

// Dir returns the labelfwd config directory path.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "labelfwd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "labelfwd")
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}
