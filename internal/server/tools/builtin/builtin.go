// Package builtin holds plugins compiled into the server. They use the same
// registration contract as plugin files and are enabled by name in config.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atlanticdynamic/toolgate/internal/jsonsafe"
	"github.com/atlanticdynamic/toolgate/internal/server/toolctx"
	"github.com/atlanticdynamic/toolgate/internal/server/tools"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Catalog maps builtin names to their entry points.
func Catalog() map[string]tools.RegisterFunc {
	return map[string]tools.RegisterFunc{
		"echo":   Echo,
		"whoami": WhoAmI,
	}
}

// Names lists the builtin names in a stable order.
func Names() []string {
	return []string{"echo", "whoami"}
}

// Echo registers a tool that returns its "message" argument.
func Echo(_ context.Context, reg tools.Registration) error {
	reg.Dispatcher.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "Returns the message argument unchanged",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"message": {Type: "string", Description: "Text to echo"},
			},
			Required: []string{"message"},
		},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Message *string `json:"message"`
		}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return textResult(fmt.Sprintf("invalid arguments: %v", err), true), nil
			}
		}
		if args.Message == nil {
			return textResult("missing required argument: message", true), nil
		}
		return textResult(*args.Message, false), nil
	})
	return nil
}

type whoamiResponse struct {
	Authenticated bool   `json:"authenticated"`
	BearerToken   string `json:"bearer_token,omitempty"`
	Tool          string `json:"tool"`
}

// WhoAmI registers a tool that reports the bearer token bound to the call.
func WhoAmI(_ context.Context, reg tools.Registration) error {
	logger := reg.Logger
	reg.Dispatcher.AddTool(&mcp.Tool{
		Name:        "whoami",
		Description: "Reports the bearer token the caller authenticated with",
	}, func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, ok := toolctx.BearerToken(ctx)
		if logger != nil {
			logger.Debug("whoami called", "authenticated", ok)
		}

		body, err := jsonsafe.Marshal(whoamiResponse{
			Authenticated: ok,
			BearerToken:   token,
			Tool:          reg.ToolID,
		})
		if err != nil {
			return nil, err
		}
		return textResult(string(body), false), nil
	})
	return nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
