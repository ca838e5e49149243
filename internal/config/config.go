package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 8080
	defaultPollIntervalSec = 300
	defaultWorkers         = 5
	defaultAITimeoutSec    = 30
	defaultAIModel         = "gemini-1.5-flash"
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Gmail  GmailConfig  `yaml:"gmail"`
	AI     AIConfig     `yaml:"ai,omitempty"`
	Sync   SyncConfig   `yaml:"sync,omitempty"`
	Notify NotifyConfig `yaml:"notify,omitempty"`
	Store  StoreConfig  `yaml:"store,omitempty"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// GmailConfig points at the OAuth credential files used to reach the
// Gmail API.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

type AIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type SyncConfig struct {
	PollIntervalSec int `yaml:"poll_interval_sec"`
	Workers         int `yaml:"workers"`
}

// NotifyConfig controls the digest emails sent when applications change.
type NotifyConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Provider string     `yaml:"provider"` // "smtp", "resend", "sendgrid"
	From     string     `yaml:"from"`
	To       string     `yaml:"to"`
	APIKey   string     `yaml:"api_key,omitempty"`
	SMTP     SMTPConfig `yaml:"smtp,omitempty"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".jobtrail", "config.yaml")
}

func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "jobtrail.db"
	}
	return filepath.Join(home, ".jobtrail", "jobtrail.db")
}

func Load(path string) (*Config, error) {
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Gmail.CredentialsFile == "" {
		c.Gmail.CredentialsFile = filepath.Join(filepath.Dir(DefaultConfigPath()), "credentials.json")
	}
	if c.Gmail.TokenFile == "" {
		c.Gmail.TokenFile = filepath.Join(filepath.Dir(DefaultConfigPath()), "token.json")
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.TimeoutSec == 0 {
		c.AI.TimeoutSec = defaultAITimeoutSec
	}
	if c.Sync.PollIntervalSec == 0 {
		c.Sync.PollIntervalSec = defaultPollIntervalSec
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = defaultWorkers
	}
	if c.Notify.Provider == "" {
		c.Notify.Provider = "smtp"
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath()
	}
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d is out of range", c.Server.Port)
	}
	if c.Server.AuthToken == "" {
		return fmt.Errorf("server: auth_token is required")
	}
	if c.Gmail.CredentialsFile == "" {
		return fmt.Errorf("gmail: credentials_file is required")
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("ai: api_key is required when ai is enabled")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync: workers must be at least 1")
	}
	if c.Notify.Enabled {
		if err := c.validateNotify(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.From == "" || c.Notify.To == "" {
		return fmt.Errorf("notify: from and to addresses are required")
	}
	switch c.Notify.Provider {
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			return fmt.Errorf("notify.smtp: host is required")
		}
		if c.Notify.SMTP.Port == 0 {
			return fmt.Errorf("notify.smtp: port is required")
		}
	case "resend", "sendgrid":
		if c.Notify.APIKey == "" {
			return fmt.Errorf("notify: api_key is required for provider %q", c.Notify.Provider)
		}
	default:
		return fmt.Errorf("notify: unknown provider %q", c.Notify.Provider)
	}
	return nil
}
