// Package config loads orchestration settings from YAML files, dotenv
// files, and AGENTKIT_* environment variables. It is pure data: callers
// translate a Config into orchestrator options, batch configs, and audit
// backends at wiring time.
//
// Precedence is Default, then the config file, then the environment, so
// an operator can override a checked-in file without editing it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Audit backend names accepted by AuditConfig.Backend.
const (
	AuditBackendMemory = "memory"
	AuditBackendSQLite = "sqlite"
	AuditBackendRedis  = "redis"
)

// OrchestratorConfig tunes dispatch: retry behavior, budget enforcement,
// and the per-execution time limit.
type OrchestratorConfig struct {
	MaxRetries         int  `yaml:"maxRetries" json:"maxRetries"`
	BaseBackoffMs      int  `yaml:"baseBackoffMs" json:"baseBackoffMs"`
	MaxBackoffMs       int  `yaml:"maxBackoffMs" json:"maxBackoffMs"`
	EnforceBudget      bool `yaml:"enforceBudget" json:"enforceBudget"`
	MaxExecutionTimeMs int  `yaml:"maxExecutionTimeMs" json:"maxExecutionTimeMs"`
}

func (c OrchestratorConfig) BaseBackoff() time.Duration {
	return time.Duration(c.BaseBackoffMs) * time.Millisecond
}

func (c OrchestratorConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMs) * time.Millisecond
}

func (c OrchestratorConfig) MaxExecutionTime() time.Duration {
	return time.Duration(c.MaxExecutionTimeMs) * time.Millisecond
}

// ToolsConfig tunes tool batches: parallelism, the per-call deadline, and
// the failure policy.
type ToolsConfig struct {
	MaxParallel     int  `yaml:"maxParallel" json:"maxParallel"`
	CallTimeoutMs   int  `yaml:"callTimeoutMs" json:"callTimeoutMs"`
	Sequential      bool `yaml:"sequential" json:"sequential"`
	ContinueOnError bool `yaml:"continueOnError" json:"continueOnError"`
}

func (c ToolsConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMs) * time.Millisecond
}

// AuditConfig selects and tunes the audit destination.
type AuditConfig struct {
	// Backend is one of memory, sqlite, or redis.
	Backend     string `yaml:"backend" json:"backend"`
	Async       bool   `yaml:"async" json:"async"`
	AsyncBuffer int    `yaml:"asyncBuffer" json:"asyncBuffer"`
	SQLitePath  string `yaml:"sqlitePath" json:"sqlitePath"`
	RedisAddr   string `yaml:"redisAddr" json:"redisAddr"`
	RedisStream string `yaml:"redisStream" json:"redisStream"`
}

// Config is the full settings tree.
type Config struct {
	Orchestrator OrchestratorConfig `yaml:"orchestrator" json:"orchestrator"`
	Tools        ToolsConfig        `yaml:"tools" json:"tools"`
	Audit        AuditConfig        `yaml:"audit" json:"audit"`
}

// Default returns the settings used when nothing is configured: three
// retries backed off from 1s to 10s, budget enforcement on, a 30s tool
// call deadline, and in-memory audit.
func Default() Config {
	return Config{
		Orchestrator: OrchestratorConfig{
			MaxRetries:    3,
			BaseBackoffMs: 1000,
			MaxBackoffMs:  10000,
			EnforceBudget: true,
		},
		Tools: ToolsConfig{
			CallTimeoutMs: 30000,
		},
		Audit: AuditConfig{
			Backend:     AuditBackendMemory,
			AsyncBuffer: 256,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result. Settings absent from the file keep their default values.
func Load(path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Config{}, fmt.Errorf("config path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve config path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %q: %w", absPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %q as YAML: %w", absPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", absPath, err)
	}
	return cfg, nil
}

// LoadDotenv loads dotenv files into the process environment before
// ApplyEnv reads it. Missing files are skipped; defaults to ".env" when
// no paths are given.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to load dotenv file %q: %w", path, err)
		}
	}
	return nil
}

// Validate rejects settings the wiring layer could not act on.
func (c Config) Validate() error {
	if c.Orchestrator.MaxRetries < 0 {
		return fmt.Errorf("orchestrator.maxRetries must not be negative")
	}
	if c.Orchestrator.BaseBackoffMs < 0 || c.Orchestrator.MaxBackoffMs < 0 {
		return fmt.Errorf("orchestrator backoff values must not be negative")
	}
	if c.Orchestrator.MaxExecutionTimeMs < 0 {
		return fmt.Errorf("orchestrator.maxExecutionTimeMs must not be negative")
	}
	if c.Tools.CallTimeoutMs < 0 {
		return fmt.Errorf("tools.callTimeoutMs must not be negative")
	}
	if c.Audit.AsyncBuffer < 0 {
		return fmt.Errorf("audit.asyncBuffer must not be negative")
	}

	switch c.Audit.Backend {
	case AuditBackendMemory:
	case AuditBackendSQLite:
		if strings.TrimSpace(c.Audit.SQLitePath) == "" {
			return fmt.Errorf("audit backend %q requires audit.sqlitePath", c.Audit.Backend)
		}
	case AuditBackendRedis:
		if strings.TrimSpace(c.Audit.RedisAddr) == "" {
			return fmt.Errorf("audit backend %q requires audit.redisAddr", c.Audit.Backend)
		}
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}
	return nil
}
