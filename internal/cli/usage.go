package cli

import (
	"fmt"

	yaml "github.com/goccy/go-yaml"
)

func printUsage() {
	fmt.Println("agentkit CLI")
	fmt.Println("Usage:")
	fmt.Println("  agentkit run [--config=PATH] [--budget=N] [--model=NAME] [--session=ID] -- \"your prompt\"")
	fmt.Println("  agentkit tools")
	fmt.Println("  agentkit config [--config=PATH]")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  AGENTKIT_PROVIDER             openai or ollama (default ollama)")
	fmt.Println("  OPENAI_API_KEY                Required when AGENTKIT_PROVIDER=openai")
	fmt.Println("  OLLAMA_BASE_URL               Ollama server (default http://127.0.0.1:11434)")
	fmt.Println("  AGENTKIT_AUDIT_BACKEND        memory, sqlite, or redis")
	fmt.Println("  AGENTKIT_MAX_RETRIES          Additional attempts after a failed execution")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  agentkit run -- \"what time is it?\"")
	fmt.Println("  agentkit run --budget=2.5 --session=demo -- \"count the words in this sentence\"")
	fmt.Println("  AGENTKIT_AUDIT_BACKEND=sqlite AGENTKIT_AUDIT_SQLITE_PATH=./audit.db agentkit run -- \"hi\"")
}

// showConfig prints the effective configuration after file and
// environment overlays, for debugging precedence issues.
func showConfig(args []string) int {
	opts, _ := parseRunArgs(args)
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fail("config: %v", err)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fail("marshal config: %v", err)
	}
	fmt.Print(string(out))
	return 0
}
