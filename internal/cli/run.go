package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/audit"
	auditredis "github.com/stratumhq/agentkit/audit/redisstream"
	auditsqlite "github.com/stratumhq/agentkit/audit/sqlite"
	"github.com/stratumhq/agentkit/config"
	"github.com/stratumhq/agentkit/llm"
	"github.com/stratumhq/agentkit/llm/factory"
	"github.com/stratumhq/agentkit/multiagent"
	"github.com/stratumhq/agentkit/tools"
)

type runOptions struct {
	configPath string
	budget     float64
	model      string
	session    string
}

func parseRunArgs(args []string) (runOptions, []string) {
	opts := runOptions{budget: 10}
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimSpace(strings.TrimPrefix(arg, "--config="))
		case strings.HasPrefix(arg, "--budget="):
			if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(arg, "--budget=")), 64); err == nil {
				opts.budget = v
			}
		case strings.HasPrefix(arg, "--model="):
			opts.model = strings.TrimSpace(strings.TrimPrefix(arg, "--model="))
		case strings.HasPrefix(arg, "--session="):
			opts.session = strings.TrimSpace(strings.TrimPrefix(arg, "--session="))
		default:
			positional = append(positional, arg)
		}
	}
	return opts, positional
}

func normalizeInput(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) == "--" {
		args = args[1:]
	}
	return strings.TrimSpace(strings.Join(args, " "))
}

func loadConfig(path string) (config.Config, error) {
	if err := config.LoadDotenv(); err != nil {
		return config.Config{}, err
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg = config.ApplyEnv(cfg)
	return cfg, cfg.Validate()
}

func buildAuditLog(cfg config.AuditConfig) (audit.Log, func(), error) {
	switch cfg.Backend {
	case config.AuditBackendSQLite:
		store, err := auditsqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.AuditBackendRedis:
		stream, err := auditredis.New(cfg.RedisAddr, auditredis.WithStream(cfg.RedisStream))
		if err != nil {
			return nil, nil, err
		}
		return stream, func() { _ = stream.Close() }, nil
	default:
		return audit.NewMemory(), func() {}, nil
	}
}

func runAgent(ctx context.Context, args []string) int {
	opts, positional := parseRunArgs(args)
	input := normalizeInput(positional)
	if input == "" {
		printUsage()
		return 1
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fail("config: %v", err)
	}

	provider, err := factory.FromEnv()
	if err != nil {
		return fail("provider setup failed: %v", err)
	}

	sink, closeSink, err := buildAuditLog(cfg.Audit)
	if err != nil {
		return fail("audit backend failed: %v", err)
	}
	defer closeSink()

	dest := sink
	if cfg.Audit.Async {
		async := audit.NewAsync(sink, cfg.Audit.AsyncBuffer)
		defer async.Close()
		dest = async
	}

	exec := tools.NewExecutor(builtinRegistry(), tools.BatchConfig{
		CallTimeout:     cfg.Tools.CallTimeout(),
		MaxParallel:     cfg.Tools.MaxParallel,
		Sequential:      cfg.Tools.Sequential,
		ContinueOnError: cfg.Tools.ContinueOnError,
	})

	agOpts := []llm.AgentOption{llm.WithExecutor(exec)}
	if opts.model != "" {
		agOpts = append(agOpts, llm.WithModel(opts.model))
	}
	assistant, err := llm.NewModelAgent(
		agent.Identity{ID: "assistant", Name: "assistant", Version: "1"}, provider, agOpts...)
	if err != nil {
		return fail("agent create failed: %v", err)
	}

	orch := multiagent.New(
		multiagent.WithAudit(dest),
		multiagent.WithAuditErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "audit write failed: %v\n", err)
		}),
		multiagent.WithBudgetEnforcement(cfg.Orchestrator.EnforceBudget),
		multiagent.WithRetryPolicy(multiagent.RetryPolicy{
			MaxRetries:  cfg.Orchestrator.MaxRetries,
			BaseBackoff: cfg.Orchestrator.BaseBackoff(),
			MaxBackoff:  cfg.Orchestrator.MaxBackoff(),
		}),
		multiagent.WithMaxExecutionTime(cfg.Orchestrator.MaxExecutionTime()),
	)
	if err := orch.RegisterAgent(assistant); err != nil {
		return fail("register failed: %v", err)
	}

	run := agent.NewContext(opts.budget)
	run.SessionID = opts.session
	run.Environment = "cli"

	res := orch.ExecuteAgent(ctx, "assistant", input, run)
	if res.IsFailure() {
		return fail("run failed: %v", res.Err())
	}

	fmt.Println(res.Value())
	for _, warning := range res.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if tr := res.Trace(); tr != nil {
		fmt.Fprintf(os.Stderr, "\nrun=%s duration=%s cost=%.4f budget-left=%.4f\n",
			tr.ID(), tr.Duration().Round(time.Millisecond), tr.Cost(), run.RemainingBudget())
	}
	return 0
}
