package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Economy backends.
const (
	EconomyNone     = "none"
	EconomyMemory   = "memory"
	EconomyPostgres = "postgres"
	EconomySQLite   = "sqlite"
)

// Server holds process-level configuration of the trade server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Logging: debug | info | warn | error
	LogLevel string `yaml:"log_level"`

	// Path to the trade rules file (see Trade).
	TradeConfig string `yaml:"trade_config"`

	// Optional directory with locale overrides (<locale>.yaml).
	MessagesDir string `yaml:"messages_dir"`

	Economy EconomyConfig `yaml:"economy"`
	Journal JournalConfig `yaml:"journal"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// EconomyConfig selects the currency ledger backend.
type EconomyConfig struct {
	Backend        string         `yaml:"backend"` // none | memory | postgres | sqlite
	Database       DatabaseConfig `yaml:"database"`
	SQLitePath     string         `yaml:"sqlite_path"`
	StartBalance   int64          `yaml:"start_balance"` // minor units credited to unknown accounts
	CurrencySingle string         `yaml:"currency_single"`
	CurrencyPlural string         `yaml:"currency_plural"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// JournalConfig controls the completed-trade journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// GatewayConfig controls the WebSocket host gateway.
type GatewayConfig struct {
	Path         string            `yaml:"path"`
	WriteTimeout time.Duration     `yaml:"write_timeout"`
	ReadTimeout  time.Duration     `yaml:"read_timeout"`
	SendQueue    int               `yaml:"send_queue"`
	Accounts     map[string]string `yaml:"accounts"`    // name → bcrypt hash; empty = open login
	Permissions  []string          `yaml:"permissions"` // granted to every player on login
	Admins       []string          `yaml:"admins"`      // names granted "*"
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress: "0.0.0.0",
		Port:        8787,
		LogLevel:    "info",
		TradeConfig: "config/trade.yaml",
		Economy: EconomyConfig{
			Backend:        EconomyMemory,
			SQLitePath:     "data/economy.db",
			StartBalance:   0,
			CurrencySingle: "coin",
			CurrencyPlural: "coins",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "simpletrade",
				Password: "simpletrade",
				DBName:   "simpletrade",
				SSLMode:  "disable",
			},
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     "data/journal",
		},
		Gateway: GatewayConfig{
			Path:         "/ws",
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  120 * time.Second,
			SendQueue:    64,
			Permissions: []string{
				PermTrade,
				PermAccept,
				PermDeny,
				PermInitiateShift,
			},
		},
	}
}

// Validate checks values that cannot be defaulted.
func (s Server) Validate() error {
	switch s.Economy.Backend {
	case EconomyNone, EconomyMemory, EconomyPostgres, EconomySQLite:
	default:
		return fmt.Errorf("economy.backend: unknown backend %q", s.Economy.Backend)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port: %d out of range", s.Port)
	}
	if s.Gateway.SendQueue <= 0 {
		return fmt.Errorf("gateway.send_queue must be > 0")
	}
	return nil
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
