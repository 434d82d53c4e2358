package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// GatewayConfig holds credentials and endpoints for the Wablas messaging gateway.
type GatewayConfig struct {
	BaseURL   string `yaml:"base_url" envconfig:"WABLAS_BASE_URL"`
	APIKey    string `yaml:"api_key" envconfig:"WABLAS_API_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"WABLAS_SECRET_KEY"`
	// BotNumber is the bot's own WhatsApp number, used to suppress self echoes.
	BotNumber string `yaml:"bot_number" envconfig:"BOT_NUMBER"`
	// WrapData selects the gateway-versioned array-wrapped send body
	// {"data":[{"phone","message"}]} instead of the flat shape.
	WrapData       bool `yaml:"wrap_data" envconfig:"WABLAS_WRAP_DATA"`
	TimeoutSeconds int  `yaml:"timeout_seconds" envconfig:"WABLAS_TIMEOUT_SECONDS"`
}

// IntakeConfig describes the external sink that stores completed intake records.
// An empty SinkURL turns forwarding into a no-op.
type IntakeConfig struct {
	SinkURL        string `yaml:"sink_url" envconfig:"SPREADSHEET_WEBHOOK"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"INTAKE_TIMEOUT_SECONDS"`
}

// SessionConfig selects the session store backend and its expiry.
type SessionConfig struct {
	Backend    string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLMinutes int    `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// HTTPConfig specifies the inbound webhook listener.
type HTTPConfig struct {
	Listen      string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port        int    `yaml:"port" envconfig:"HTTP_PORT"`
	WebhookPath string `yaml:"webhook_path" envconfig:"HTTP_WEBHOOK_PATH"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// BackendMemory keeps sessions in process memory; single-instance only.
	BackendMemory = "memory"
	// BackendPostgres keeps sessions in a shared Postgres table.
	BackendPostgres = "postgres"

	defaultBaseURL     = "https://tegal.wablas.com/api/v2"
	defaultWebhookPath = "/api/webhook"
)

// DatabaseConfig mirrors the connection settings consumed by core/database.
// It lives here (not in core/database) so the logger can depend on this
// package without creating an import cycle.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Config aggregates everything the bot needs to run.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Intake   IntakeConfig   `yaml:"intake"`
	Session  SessionConfig  `yaml:"session"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
// Gateway credentials are deliberately not required here: their absence is a
// per-request condition that must degrade to a silent acknowledgement, never a
// startup failure that would bounce the webhook endpoint.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Gateway.BaseURL) == "" {
		cfg.Gateway.BaseURL = defaultBaseURL
	}
	cfg.Gateway.BaseURL = strings.TrimRight(cfg.Gateway.BaseURL, "/")
	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = 10
	}
	if cfg.Intake.TimeoutSeconds <= 0 {
		cfg.Intake.TimeoutSeconds = 10
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if backend == "" {
		backend = BackendMemory
	}
	switch backend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when session.backend is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when session.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, postgres", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend

	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 30
	}

	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if strings.TrimSpace(cfg.HTTP.WebhookPath) == "" {
		cfg.HTTP.WebhookPath = defaultWebhookPath
	}
	if !strings.HasPrefix(cfg.HTTP.WebhookPath, "/") {
		cfg.HTTP.WebhookPath = "/" + cfg.HTTP.WebhookPath
	}

	return nil
}
