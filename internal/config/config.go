// Package config provides configuration loading for triaged.
package config

import (
	"fmt"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Completion CompletionConfig `koanf:"completion"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Cases      CasesConfig      `koanf:"cases"`
	Roster     RosterConfig     `koanf:"roster"`
	Inbox      InboxConfig      `koanf:"inbox"`
	Agent      AgentConfig      `koanf:"agent"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// CompletionConfig holds text-completion service settings. A missing API
// key is fatal at startup: the pipeline cannot run without it.
type CompletionConfig struct {
	APIKey     Secret   `koanf:"api_key"`
	Model      string   `koanf:"model"`
	BaseURL    string   `koanf:"base_url"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
	RateLimit  float64  `koanf:"rate_limit"` // requests per second
	RateBurst  int      `koanf:"rate_burst"`
}

// LedgerConfig holds the event ledger database settings.
type LedgerConfig struct {
	Path string `koanf:"path"`
}

// CasesConfig holds the case record store settings.
type CasesConfig struct {
	Dir string `koanf:"dir"`
}

// RosterConfig holds the vendor roster settings.
type RosterConfig struct {
	Path string `koanf:"path"`
}

// InboxConfig holds the drop-folder ingest settings.
type InboxConfig struct {
	Enabled      bool     `koanf:"enabled"`
	Dir          string   `koanf:"dir"`
	ScanInterval Duration `koanf:"scan_interval"`
}

// AgentConfig identifies the processing agent.
type AgentConfig struct {
	ID string `koanf:"id"`
}

// Validate checks the configuration for fatal problems. It is called after
// defaults are applied, so only genuinely unrecoverable conditions fail.
func (c *Config) Validate() error {
	if !c.Completion.APIKey.IsSet() {
		return fmt.Errorf("completion.api_key is required (set COMPLETION_API_KEY)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if c.Cases.Dir == "" {
		return fmt.Errorf("cases.dir is required")
	}
	if c.Agent.ID == "" {
		return fmt.Errorf("agent.id is required")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4o-mini"
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = Duration(60 * time.Second)
	}
	if cfg.Completion.MaxRetries == 0 {
		cfg.Completion.MaxRetries = 3
	}
	if cfg.Completion.RateLimit == 0 {
		cfg.Completion.RateLimit = 50.0 / 60.0
	}
	if cfg.Completion.RateBurst == 0 {
		cfg.Completion.RateBurst = 5
	}

	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "triaged.db"
	}
	if cfg.Cases.Dir == "" {
		cfg.Cases.Dir = "case_files"
	}
	if cfg.Roster.Path == "" {
		cfg.Roster.Path = "vendors.csv"
	}

	if cfg.Inbox.Dir == "" {
		cfg.Inbox.Dir = "inbox"
	}
	if cfg.Inbox.ScanInterval == 0 {
		cfg.Inbox.ScanInterval = Duration(30 * time.Second)
	}

	if cfg.Agent.ID == "" {
		cfg.Agent.ID = "property_manager_agent_001"
	}
}
