// Package nodes carries the built-in node catalogue. The runtime itself
// never references these tags; hosts call Register at startup and the
// registry does the rest.
package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
)

// Stable type tags. Persisted documents reference these numbers, so they
// must never be renumbered.
const (
	TagEntry       = 1
	TagExit        = 2
	TagFunction    = 100
	TagGetVariable = 103
	TagSetVariable = 104
	TagBranch      = 110
	TagBackdrop    = 120
)

// Register installs every built-in definition into reg.
func Register(reg *registry.Registry) {
	reg.Register(registry.Definition{
		Tag:        TagEntry,
		Name:       "Input",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddOutput("exec", graph.KindExec)
			return nil
		},
	})

	reg.Register(registry.Definition{
		Tag:        TagExit,
		Name:       "Output",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddInput("exec", graph.KindExec)
			n.AddInput("value", graph.KindAny)
			return nil
		},
		Run: func(ctx context.Context, env registry.Env, n *graph.Node) error {
			if v, ok := env.Input(n, "value"); ok {
				n.Data["result"] = v
			}
			return nil
		},
	})

	reg.Register(registry.Definition{
		Tag:        TagFunction,
		Name:       "Function",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddInput("exec", graph.KindExec)
			n.AddInput("a", graph.KindNumber)
			n.AddInput("b", graph.KindNumber)
			n.AddOutput("exec", graph.KindExec)
			n.AddOutput("result", graph.KindNumber)
			if _, ok := n.Data["function"]; !ok {
				n.Data["function"] = "add"
			}
			return nil
		},
		Run: runFunction,
	})

	reg.Register(registry.Definition{
		Tag:        TagGetVariable,
		Name:       "Get Variable",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddOutput("value", graph.KindAny)
			return nil
		},
		Run: func(ctx context.Context, env registry.Env, n *graph.Node) error {
			name := stringData(n, "variable")
			v, ok := env.Vars().Get(name)
			if !ok {
				return fmt.Errorf("nodes: %w: %q", graph.ErrVariableNotFound, name)
			}
			return env.SetOutput(n, "value", v.Value)
		},
	})

	reg.Register(registry.Definition{
		Tag:        TagSetVariable,
		Name:       "Set Variable",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddInput("exec", graph.KindExec)
			n.AddInput("value", graph.KindAny)
			n.AddOutput("exec", graph.KindExec)
			return nil
		},
		Run: func(ctx context.Context, env registry.Env, n *graph.Node) error {
			name := stringData(n, "variable")
			v, ok := env.Input(n, "value")
			if !ok {
				return fmt.Errorf("nodes: set variable %q: value input is not connected", name)
			}
			return env.Vars().Set(name, v, n.ID)
		},
	})

	reg.Register(registry.Definition{
		Tag:        TagBranch,
		Name:       "Branch",
		Executable: true,
		Build: func(n *graph.Node) error {
			n.AddInput("exec", graph.KindExec)
			n.AddOutput("true", graph.KindExec)
			n.AddOutput("false", graph.KindExec)
			n.AddOutput("result", graph.KindBoolean)
			return nil
		},
		Run: func(ctx context.Context, env registry.Env, n *graph.Node) error {
			source := stringData(n, "expression")
			program, err := compile(source)
			if err != nil {
				return err
			}
			v, err := program.Bool(varsResolver{env.Vars()})
			if err != nil {
				return err
			}
			pick := "false"
			if v {
				pick = "true"
			}
			if err := env.SelectExec(n, pick); err != nil {
				return err
			}
			return env.SetOutput(n, "result", v)
		},
	})

	// Backdrops are annotations: no sockets, never executed.
	reg.Register(registry.Definition{
		Tag:  TagBackdrop,
		Name: "Backdrop",
		Build: func(n *graph.Node) error {
			if _, ok := n.Data["text"]; !ok {
				n.Data["text"] = ""
			}
			return nil
		},
	})
}

// functions holds the callables a Function node dispatches on.
var functions = map[string]func(a, b float64) (float64, error){
	"add":      func(a, b float64) (float64, error) { return a + b, nil },
	"subtract": func(a, b float64) (float64, error) { return a - b, nil },
	"multiply": func(a, b float64) (float64, error) { return a * b, nil },
	"divide": func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, fmt.Errorf("nodes: division by zero")
		}
		return a / b, nil
	},
	"min": func(a, b float64) (float64, error) {
		if a < b {
			return a, nil
		}
		return b, nil
	},
	"max": func(a, b float64) (float64, error) {
		if a > b {
			return a, nil
		}
		return b, nil
	},
}

func runFunction(ctx context.Context, env registry.Env, n *graph.Node) error {
	name := stringData(n, "function")
	fn, ok := functions[name]
	if !ok {
		return fmt.Errorf("nodes: unknown function %q", name)
	}
	a, err := numberInput(env, n, "a")
	if err != nil {
		return err
	}
	b, err := numberInput(env, n, "b")
	if err != nil {
		return err
	}
	result, err := fn(a, b)
	if err != nil {
		return err
	}
	return env.SetOutput(n, "result", result)
}

// numberInput reads a numeric input, falling back to a default stored in
// the node's data when the socket is not connected.
func numberInput(env registry.Env, n *graph.Node, name string) (float64, error) {
	if v, ok := env.Input(n, name); ok {
		if f, ok := asNumber(v); ok {
			return f, nil
		}
		return 0, fmt.Errorf("nodes: input %q of node %s is not a number", name, n.ID)
	}
	if v, ok := n.Data["default_"+name]; ok {
		if f, ok := asNumber(v); ok {
			return f, nil
		}
	}
	return 0, nil
}

func asNumber(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	}
	return 0, false
}

func stringData(n *graph.Node, key string) string {
	if v, ok := n.Data[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// varsResolver resolves expression identifiers against graph variables.
// Both "threshold" and "vars.threshold" address the same variable.
type varsResolver struct {
	vars *graph.Variables
}

func (r varsResolver) Resolve(path []string) (any, bool) {
	if len(path) == 2 && path[0] == "vars" {
		path = path[1:]
	}
	if len(path) != 1 {
		return nil, false
	}
	v, ok := r.vars.Get(path[0])
	if !ok {
		return nil, false
	}
	return v.Value, true
}
