package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/stratumhq/agentkit/types"
)

// BuildSchema derives a JSON schema from a Go value, typically the
// argument struct of a typed tool. The schema is inlined (no $ref) so it
// can be shipped to model providers as-is.
func BuildSchema(v any) map[string]any {
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// NewTypedTool builds a tool whose argument schema is reflected from A
// and whose raw JSON arguments are decoded into A before the handler runs.
func NewTypedTool[A any](name, description string, fn func(ctx context.Context, args A) (any, error)) *FuncTool {
	var zero A
	schema := BuildSchema(zero)
	return NewFuncTool(name, description, schema, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
		}
		return fn(ctx, args)
	})
}

func validateArgs(def types.ToolDefinition, args json.RawMessage) error {
	if len(def.JSONSchema) == 0 {
		return nil
	}
	res, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(def.JSONSchema),
		gojsonschema.NewBytesLoader(args),
	)
	if err != nil {
		return fmt.Errorf("validate arguments for %q: %w", def.Name, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("arguments for %q rejected: %s", def.Name, strings.Join(msgs, "; "))
}
