package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stratumhq/agentkit/tools"
)

// builtinRegistry holds the tools every CLI run advertises to the model.
func builtinRegistry() *tools.Registry {
	reg := tools.NewRegistry()
	reg.MustRegister(tools.NewFuncTool("current_time", "Get the current time in UTC.", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		}))
	reg.MustRegister(tools.NewTypedTool("word_count", "Count the words in a text.",
		func(ctx context.Context, args struct {
			Text string `json:"text"`
		}) (any, error) {
			return len(strings.Fields(args.Text)), nil
		}))
	reg.MustRegister(tools.NewTypedTool("calculate", "Evaluate a basic arithmetic operation on two numbers.",
		func(ctx context.Context, args struct {
			Op string  `json:"op"`
			A  float64 `json:"a"`
			B  float64 `json:"b"`
		}) (any, error) {
			switch args.Op {
			case "add":
				return args.A + args.B, nil
			case "sub":
				return args.A - args.B, nil
			case "mul":
				return args.A * args.B, nil
			case "div":
				if args.B == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				return args.A / args.B, nil
			default:
				return nil, fmt.Errorf("unsupported op %q (use add, sub, mul, div)", args.Op)
			}
		}))
	return reg
}

func listTools() int {
	for _, def := range builtinRegistry().Definitions() {
		fmt.Printf("%-14s %s\n", def.Name, def.Description)
	}
	return 0
}
