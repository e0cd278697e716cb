package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atlanticdynamic/toolgate/internal/jsonsafe"
	"github.com/atlanticdynamic/toolgate/internal/server/toolctx"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robbyt/go-polyscript/engines/extism"
	"github.com/robbyt/go-polyscript/engines/risor"
	"github.com/robbyt/go-polyscript/engines/starlark"
	"github.com/robbyt/go-polyscript/platform"
	"github.com/robbyt/go-polyscript/platform/constants"
	"github.com/robbyt/go-polyscript/platform/data"
	"github.com/robbyt/go-polyscript/platform/script/loader"
)

const (
	DefaultScriptTimeout  = 30 * time.Second
	DefaultWasmEntrypoint = "run"
)

// ScriptLoader compiles Risor, Starlark and Extism WASM plugins. Each file
// becomes one tool named after the file.
//
// Scripts receive {"args", "data", "tool", "bearer_token"} through ctx and
// may return {"isError": bool, "content": any} or any other value, which is
// rendered as the tool's text content.
type ScriptLoader struct {
	logHandler     slog.Handler
	timeout        time.Duration
	wasmEntrypoint string
}

// ScriptOption configures a ScriptLoader.
type ScriptOption func(*ScriptLoader)

// WithScriptTimeout bounds each evaluation.
func WithScriptTimeout(d time.Duration) ScriptOption {
	return func(s *ScriptLoader) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithWasmEntrypoint sets the exported function called in WASM plugins.
func WithWasmEntrypoint(name string) ScriptOption {
	return func(s *ScriptLoader) {
		if name != "" {
			s.wasmEntrypoint = name
		}
	}
}

// WithScriptLogHandler sets the handler passed to the script engines.
func WithScriptLogHandler(h slog.Handler) ScriptOption {
	return func(s *ScriptLoader) {
		s.logHandler = h
	}
}

// NewScriptLoader creates a ScriptLoader.
func NewScriptLoader(opts ...ScriptOption) *ScriptLoader {
	s := &ScriptLoader{
		timeout:        DefaultScriptTimeout,
		wasmEntrypoint: DefaultWasmEntrypoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logHandler == nil {
		s.logHandler = slog.Default().Handler()
	}
	return s
}

func (s *ScriptLoader) Extensions() []string {
	return []string{".risor", ".star", ".wasm"}
}

// Load compiles the script at path. Compilation errors surface here, before
// anything is registered.
func (s *ScriptLoader) Load(_ context.Context, path string) (RegisterFunc, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))

	var dirs directives
	if ext != ".wasm" {
		src, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		if dirs, err = parseDirectives(src); err != nil {
			return nil, err
		}
	}

	var resolved *jsonschema.Resolved
	if dirs.Schema != nil {
		if dirs.Schema.Type != "object" {
			return nil, fmt.Errorf("%w: @schema must have type \"object\"", ErrInvalidDirective)
		}
		if resolved, err = dirs.Schema.Resolve(nil); err != nil {
			return nil, fmt.Errorf("%w: @schema: %w", ErrInvalidDirective, err)
		}
	}

	eval, err := s.compile(ext, absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompilationFailed, err)
	}

	return func(_ context.Context, reg Registration) error {
		tool := &scriptTool{
			id:       reg.ToolID,
			eval:     eval,
			resolved: resolved,
			data:     dirs.Data,
			timeout:  s.timeout,
			logger:   reg.Logger,
		}

		description := dirs.Description
		if description == "" {
			description = fmt.Sprintf("Script tool %s", reg.ToolID)
		}
		def := &mcp.Tool{Name: reg.ToolID, Description: description}
		if dirs.Schema != nil {
			def.InputSchema = dirs.Schema
		}

		reg.Dispatcher.AddTool(def, tool.handle)
		return nil
	}, nil
}

func (s *ScriptLoader) compile(ext, absPath string) (platform.Evaluator, error) {
	ldr, err := loader.NewFromDisk(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	switch ext {
	case ".risor":
		e, err := risor.FromRisorLoader(s.logHandler, ldr)
		if err != nil {
			return nil, err
		}
		return e, nil
	case ".star":
		e, err := starlark.FromStarlarkLoader(s.logHandler, ldr)
		if err != nil {
			return nil, err
		}
		return e, nil
	case ".wasm":
		e, err := extism.FromExtismLoader(s.logHandler, ldr, s.wasmEntrypoint)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("no script engine for %q", ext)
	}
}

type scriptTool struct {
	id       string
	eval     platform.Evaluator
	resolved *jsonschema.Resolved
	data     map[string]any
	timeout  time.Duration
	logger   *slog.Logger
}

func (t *scriptTool) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArguments(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if t.resolved != nil {
		if err := t.resolved.Validate(args); err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	token, _ := toolctx.BearerToken(ctx)
	staticData := maps.Clone(t.data)
	if staticData == nil {
		staticData = map[string]any{}
	}
	input := map[string]any{
		"args":         args,
		"data":         staticData,
		"tool":         t.id,
		"bearer_token": token,
	}

	evalCtx, err := data.NewContextProvider(constants.EvalData).AddDataToContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare script input: %w", err)
	}

	start := time.Now()
	result, err := t.eval.Eval(evalCtx)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.logger.Warn("Script timed out", "tool", t.id, "timeout", t.timeout)
			return errorResult(fmt.Sprintf("script timed out after %s", t.timeout)), nil
		}
		t.logger.Error("Script execution failed", "tool", t.id, "error", err, "duration", duration)
		return errorResult(fmt.Sprintf("script execution failed: %v", err)), nil
	}

	t.logger.Debug("Script executed", "tool", t.id, "duration", duration)
	return toCallToolResult(result.Interface())
}

func decodeArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	args := map[string]any{}
	if req == nil || req.Params == nil {
		return args, nil
	}
	raw := req.Params.Arguments
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

// toCallToolResult maps a script's return value onto a tool result.
func toCallToolResult(v any) (*mcp.CallToolResult, error) {
	isError := false
	if m, ok := v.(map[string]any); ok {
		if content, has := m["content"]; has {
			isError, _ = m["isError"].(bool)
			v = content
		}
	}

	text, err := renderText(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func renderText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	default:
		b, err := jsonsafe.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode script result: %w", err)
		}
		return string(b), nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
