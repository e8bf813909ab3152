package config

import (
	"os"

	"github.com/stratumhq/agentkit/internal/env"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvMaxRetries         = "AGENTKIT_MAX_RETRIES"
	EnvBaseBackoffMs      = "AGENTKIT_BASE_BACKOFF_MS"
	EnvMaxBackoffMs       = "AGENTKIT_MAX_BACKOFF_MS"
	EnvEnforceBudget      = "AGENTKIT_ENFORCE_BUDGET"
	EnvMaxExecutionTimeMs = "AGENTKIT_MAX_EXECUTION_TIME_MS"

	EnvToolMaxParallel     = "AGENTKIT_TOOL_MAX_PARALLEL"
	EnvToolCallTimeoutMs   = "AGENTKIT_TOOL_CALL_TIMEOUT_MS"
	EnvToolSequential      = "AGENTKIT_TOOL_SEQUENTIAL"
	EnvToolContinueOnError = "AGENTKIT_TOOL_CONTINUE_ON_ERROR"

	EnvAuditBackend     = "AGENTKIT_AUDIT_BACKEND"
	EnvAuditAsync       = "AGENTKIT_AUDIT_ASYNC"
	EnvAuditAsyncBuffer = "AGENTKIT_AUDIT_ASYNC_BUFFER"
	EnvAuditSQLitePath  = "AGENTKIT_AUDIT_SQLITE_PATH"
	EnvAuditRedisAddr   = "AGENTKIT_AUDIT_REDIS_ADDR"
	EnvAuditRedisStream = "AGENTKIT_AUDIT_REDIS_STREAM"
)

// ApplyEnv overlays AGENTKIT_* environment variables onto cfg. Unset and
// malformed variables leave the corresponding setting untouched, so the
// result is always at least as valid as the input.
func ApplyEnv(cfg Config) Config {
	cfg.Orchestrator.MaxRetries = env.ParseInt(EnvMaxRetries, cfg.Orchestrator.MaxRetries)
	cfg.Orchestrator.BaseBackoffMs = env.ParseInt(EnvBaseBackoffMs, cfg.Orchestrator.BaseBackoffMs)
	cfg.Orchestrator.MaxBackoffMs = env.ParseInt(EnvMaxBackoffMs, cfg.Orchestrator.MaxBackoffMs)
	cfg.Orchestrator.EnforceBudget = env.ParseBool(EnvEnforceBudget, cfg.Orchestrator.EnforceBudget)
	cfg.Orchestrator.MaxExecutionTimeMs = env.ParseInt(EnvMaxExecutionTimeMs, cfg.Orchestrator.MaxExecutionTimeMs)

	cfg.Tools.MaxParallel = env.ParseInt(EnvToolMaxParallel, cfg.Tools.MaxParallel)
	cfg.Tools.CallTimeoutMs = env.ParseInt(EnvToolCallTimeoutMs, cfg.Tools.CallTimeoutMs)
	cfg.Tools.Sequential = env.ParseBool(EnvToolSequential, cfg.Tools.Sequential)
	cfg.Tools.ContinueOnError = env.ParseBool(EnvToolContinueOnError, cfg.Tools.ContinueOnError)

	cfg.Audit.Backend = env.FirstNonEmpty(os.Getenv(EnvAuditBackend), cfg.Audit.Backend)
	cfg.Audit.Async = env.ParseBool(EnvAuditAsync, cfg.Audit.Async)
	cfg.Audit.AsyncBuffer = env.ParseInt(EnvAuditAsyncBuffer, cfg.Audit.AsyncBuffer)
	cfg.Audit.SQLitePath = env.FirstNonEmpty(os.Getenv(EnvAuditSQLitePath), cfg.Audit.SQLitePath)
	cfg.Audit.RedisAddr = env.FirstNonEmpty(os.Getenv(EnvAuditRedisAddr), cfg.Audit.RedisAddr)
	cfg.Audit.RedisStream = env.FirstNonEmpty(os.Getenv(EnvAuditRedisStream), cfg.Audit.RedisStream)

	return cfg
}
