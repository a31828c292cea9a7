package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30m" parse naturally.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the process-wide configuration, loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	Database   DatabaseConfig `yaml:"database"`
	Auth       AuthConfig     `yaml:"auth"`
	Mail       MailConfig     `yaml:"mail"`
	Download   DownloadConfig `yaml:"download"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig carries the signing secret, the algorithm identifier, the fixed
// token lifetime and the role→scope policy table.
type AuthConfig struct {
	Secret      string              `yaml:"secret"`
	Algorithm   string              `yaml:"algorithm"`
	Issuer      string              `yaml:"issuer"`
	TokenTTL    Duration            `yaml:"token_ttl"`
	Permissions map[string][]string `yaml:"permissions"`
}

type MailConfig struct {
	IMAPAddr  string `yaml:"imap_addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ExportDir string `yaml:"export_dir"`
}

type DownloadConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads the YAML config file and applies environment overrides. The
// signing secret and the database DSN may come exclusively from the
// environment so they never have to live on disk.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr: ":8080",
		Auth: AuthConfig{
			Algorithm: "HS256",
			Issuer:    "examhub",
			TokenTTL:  Duration(30 * time.Minute),
		},
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("EXAMHUB_AUTH_SECRET")); v != "" {
		cfg.Auth.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("EXAMHUB_PG_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("EXAMHUB_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth.secret is required (or EXAMHUB_AUTH_SECRET)")
	}
	if len(c.Auth.Permissions) == 0 {
		return fmt.Errorf("auth.permissions must map at least one role")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}
