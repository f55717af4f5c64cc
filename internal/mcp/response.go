package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

// toolFailure is the payload of an error result
type toolFailure struct {
	Success bool                  `json:"success"`
	Tool    string                `json:"tool"`
	Error   string                `json:"error"`
	Kind    astrwerrors.ErrorType `json:"kind,omitempty"`
}

// jsonResult wraps v as a single JSON text content
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failure inside the result with IsError set, so the client
// sees the message instead of a protocol error. Kind classifies framework errors
// such as parse or rule failures.
func toolError(tool string, err error) (*mcp.CallToolResult, error) {
	result, marshalErr := jsonResult(toolFailure{
		Tool:  tool,
		Error: err.Error(),
		Kind:  astrwerrors.TypeOf(err),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	result.IsError = true
	return result, nil
}
