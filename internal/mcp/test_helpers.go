package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool invokes a registered tool in process, bypassing the transport but not the
// diagnostic journal. It returns the text of the result; error results come back
// as Go errors.
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	result, err := s.call(context.Background(), toolName, params)
	if err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("tool %s returned no content", toolName)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("tool %s returned non-text content", toolName)
	}

	if result.IsError {
		var failure toolFailure
		if json.Unmarshal([]byte(text.Text), &failure) == nil && failure.Error != "" {
			return "", fmt.Errorf("MCP error: %s", failure.Error)
		}
		return "", fmt.Errorf("MCP error: %s", text.Text)
	}
	return text.Text, nil
}

func (s *Server) call(ctx context.Context, toolName string, params map[string]interface{}) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[toolName]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}

	args, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	result, err := handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: toolName, Arguments: args},
	})
	if err == nil && result == nil {
		err = fmt.Errorf("tool %s returned no result", toolName)
	}
	return result, err
}
