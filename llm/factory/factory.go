// Package factory builds an llm.Provider from environment variables, so
// binaries can switch providers without code changes.
package factory

import (
	"fmt"
	"os"
	"strings"

	"github.com/stratumhq/agentkit/llm"
	ollamaprov "github.com/stratumhq/agentkit/llm/ollama"
	openaiprov "github.com/stratumhq/agentkit/llm/openai"
)

// FromEnv selects a provider from AGENTKIT_PROVIDER (openai or ollama;
// ollama by default since it needs no credentials) and configures it from
// that provider's usual variables.
func FromEnv() (llm.Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(getenv("AGENTKIT_PROVIDER", "ollama")))
	switch provider {
	case "openai":
		key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AGENTKIT_PROVIDER=openai")
		}
		model := getenv("OPENAI_MODEL", "gpt-4o-mini")
		baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))

		opts := []openaiprov.Option{openaiprov.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, openaiprov.WithBaseURL(baseURL))
		}
		return openaiprov.New(key, opts...)

	case "ollama":
		model := getenv("OLLAMA_MODEL", "llama3.1:8b")
		baseURL := getenv("OLLAMA_BASE_URL", "http://127.0.0.1:11434")
		apiKey := strings.TrimSpace(os.Getenv("OLLAMA_API_KEY"))
		return ollamaprov.New(
			ollamaprov.WithModel(model),
			ollamaprov.WithBaseURL(baseURL),
			ollamaprov.WithAPIKey(apiKey),
		)
	}

	return nil, fmt.Errorf("unsupported AGENTKIT_PROVIDER %q (use openai or ollama)", provider)
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
