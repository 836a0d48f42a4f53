// Package tools gives the generator access to external capabilities,
// primarily tools discovered from MCP servers.
package tools

import "context"

// Tool is an external capability the generator may call while solving
// a task. Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string
	// Description returns a human-readable explanation of the tool.
	Description() string
	// Call runs the tool and returns its textual result.
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	ToolName        string
	ToolDescription string
	Fn              func(ctx context.Context, args map[string]interface{}) (string, error)
}

func (f Func) Name() string        { return f.ToolName }
func (f Func) Description() string { return f.ToolDescription }

func (f Func) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	return f.Fn(ctx, args)
}
