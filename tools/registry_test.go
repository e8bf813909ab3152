package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stratumhq/agentkit/types"
)

func echoTool(name string) *FuncTool {
	return NewFuncTool(name, "echoes its arguments", nil, func(ctx context.Context, args json.RawMessage) (any, error) {
		return string(args), nil
	})
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := reg.Get("echo"); !ok {
		t.Fatalf("expected echo to be registered")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one tool, got %d", reg.Len())
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := reg.Register(echoTool("echo"))
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected error for nil tool")
	}
	if err := reg.Register(echoTool("  ")); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool("echo"))
	if !reg.Unregister("echo") {
		t.Fatalf("expected unregister to report removal")
	}
	if reg.Unregister("echo") {
		t.Fatalf("expected second unregister to report absence")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		reg.MustRegister(echoTool(n))
	}
	names := reg.Names()
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Fatalf("expected sorted names, got %v", names)
	}
	defs := reg.Definitions()
	if len(defs) != 3 || defs[0].Name != "alpha" {
		t.Fatalf("expected sorted definitions, got %#v", defs)
	}
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func TestBuildSchemaFromStruct(t *testing.T) {
	schema := BuildSchema(searchArgs{})
	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %#v", schema)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %#v", schema)
	}
	if _, ok := props["query"]; !ok {
		t.Fatalf("expected query property, got %#v", props)
	}
	if _, ok := schema["$schema"]; ok {
		t.Fatalf("$schema should be stripped: %#v", schema)
	}
}

func TestTypedToolDecodesArguments(t *testing.T) {
	tool := NewTypedTool("search", "searches things", func(ctx context.Context, args searchArgs) (any, error) {
		return args.Query, nil
	})
	out, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"golang","limit":3}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "golang" {
		t.Fatalf("unexpected output: %v", out)
	}
	if tool.Definition().JSONSchema == nil {
		t.Fatalf("typed tool should carry a reflected schema")
	}
}

func TestValidateArgsRejectsMissingRequired(t *testing.T) {
	def := types.ToolDefinition{
		Name: "strict",
		JSONSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"n": map[string]any{"type": "integer"}},
			"required":   []any{"n"},
		},
	}
	if err := validateArgs(def, json.RawMessage(`{"n":2}`)); err != nil {
		t.Fatalf("valid arguments rejected: %v", err)
	}
	err := validateArgs(def, json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
