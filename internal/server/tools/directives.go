package tools

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// directives are read from the comment block at the top of a script:
//
//	// @description Reverses a string
//	// @schema {"type":"object","properties":{"input":{"type":"string"}}}
//	// @data {"max_length": 100}
//
// Starlark scripts use "#" instead of "//". Scanning stops at the first line
// that is neither blank nor a comment.
type directives struct {
	Description string
	Schema      *jsonschema.Schema
	Data        map[string]any
}

func parseDirectives(src []byte) (directives, error) {
	var d directives

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var body string
		switch {
		case strings.HasPrefix(line, "//"):
			body = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		case strings.HasPrefix(line, "#"):
			body = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		default:
			return d, nil
		}

		key, value, _ := strings.Cut(body, " ")
		value = strings.TrimSpace(value)

		switch key {
		case "@description":
			d.Description = value
		case "@schema":
			schema := &jsonschema.Schema{}
			if err := json.Unmarshal([]byte(value), schema); err != nil {
				return d, fmt.Errorf("%w: @schema: %w", ErrInvalidDirective, err)
			}
			d.Schema = schema
		case "@data":
			if err := json.Unmarshal([]byte(value), &d.Data); err != nil {
				return d, fmt.Errorf("%w: @data: %w", ErrInvalidDirective, err)
			}
		}
	}
	return d, scanner.Err()
}
