package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRunArgs(t *testing.T) {
	opts, positional := parseRunArgs([]string{
		"--config=./agentkit.yaml",
		"--budget=2.5",
		"--model=gpt-4o-mini",
		"--session=demo",
		"--",
		"what", "time", "is", "it?",
	})
	if opts.configPath != "./agentkit.yaml" {
		t.Fatalf("configPath = %q", opts.configPath)
	}
	if opts.budget != 2.5 {
		t.Fatalf("budget = %v", opts.budget)
	}
	if opts.model != "gpt-4o-mini" || opts.session != "demo" {
		t.Fatalf("model/session = %q/%q", opts.model, opts.session)
	}
	if got := normalizeInput(positional); got != "what time is it?" {
		t.Fatalf("input = %q", got)
	}
}

func TestParseRunArgsMalformedBudget(t *testing.T) {
	opts, _ := parseRunArgs([]string{"--budget=lots"})
	if opts.budget != 10 {
		t.Fatalf("malformed budget should keep the default, got %v", opts.budget)
	}
}

func TestBuiltinRegistry(t *testing.T) {
	reg := builtinRegistry()
	names := reg.Names()
	want := []string{"calculate", "current_time", "word_count"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	wc, ok := reg.Get("word_count")
	if !ok {
		t.Fatal("word_count missing")
	}
	out, err := wc.Execute(context.Background(), json.RawMessage(`{"text":"one two three"}`))
	if err != nil {
		t.Fatalf("word_count: %v", err)
	}
	if out.(int) != 3 {
		t.Fatalf("word_count = %v", out)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentkit.yaml")
	content := "orchestrator:\n  maxRetries: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AGENTKIT_MAX_RETRIES", "7")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Orchestrator.MaxRetries != 7 {
		t.Fatalf("env should override the file: %d", cfg.Orchestrator.MaxRetries)
	}
}
