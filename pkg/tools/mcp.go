package tools

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/XiaoConstantine/mcp-go/pkg/client"
	mcpLogging "github.com/XiaoConstantine/mcp-go/pkg/logging"
	models "github.com/XiaoConstantine/mcp-go/pkg/model"
	"github.com/XiaoConstantine/mcp-go/pkg/transport"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

// MCPTool delegates calls to a tool hosted by an MCP server.
type MCPTool struct {
	name        string
	description string
	schema      models.InputSchema
	client      *client.Client
	toolName    string
}

// NewMCPTool wraps one server-side tool.
func NewMCPTool(name, description string, schema models.InputSchema,
	mcpClient *client.Client, toolName string) *MCPTool {
	return &MCPTool{
		name:        name,
		description: description,
		schema:      schema,
		client:      mcpClient,
		toolName:    toolName,
	}
}

// Name returns the tool's identifier.
func (t *MCPTool) Name() string { return t.name }

// Description returns the server-provided explanation of the tool.
func (t *MCPTool) Description() string { return t.description }

// InputSchema returns the expected parameter structure.
func (t *MCPTool) InputSchema() models.InputSchema { return t.schema }

// Call forwards the call to the MCP server and flattens the text
// content of the result.
func (t *MCPTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := t.client.CallTool(ctx, t.toolName, args)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.ToolExecutionFailed, "MCP tool call failed"),
			errors.Fields{"tool_name": t.toolName},
		)
	}
	if result.IsError {
		return "", errors.WithFields(
			errors.New(errors.ToolExecutionFailed, extractContentText(result.Content)),
			errors.Fields{"tool_name": t.toolName},
		)
	}
	return extractContentText(result.Content), nil
}

// MCPClientOptions configures the client handshake.
type MCPClientOptions struct {
	ClientName    string
	ClientVersion string
	Logger        mcpLogging.Logger
}

// NewMCPClientFromStdio creates and initializes an MCP client over the
// stdio of a server subprocess.
func NewMCPClientFromStdio(reader io.Reader, writer io.Writer, options MCPClientOptions) (*client.Client, error) {
	logger := options.Logger
	if logger == nil {
		logger = mcpLogging.NewStdLogger(mcpLogging.InfoLevel)
	}

	t := transport.NewStdioTransport(reader, writer, logger)

	clientOptions := []client.Option{
		client.WithLogger(logger),
	}
	if options.ClientName != "" && options.ClientVersion != "" {
		clientOptions = append(clientOptions, client.WithClientInfo(options.ClientName, options.ClientVersion))
	}

	mcpClient := client.NewClient(t, clientOptions...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := mcpClient.Initialize(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ToolExecutionFailed, "failed to initialize MCP client")
	}
	return mcpClient, nil
}

// RegisterMCPTools discovers the server's tools and registers each one.
func RegisterMCPTools(registry *Registry, mcpClient *client.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	toolsResult, err := mcpClient.ListTools(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ToolExecutionFailed, "failed to list MCP tools")
	}

	for _, mcpTool := range toolsResult.Tools {
		tool := NewMCPTool(
			mcpTool.Name,
			mcpTool.Description,
			mcpTool.InputSchema,
			mcpClient,
			mcpTool.Name,
		)
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func extractContentText(content []models.Content) string {
	var result strings.Builder
	for _, item := range content {
		if textContent, ok := item.(models.TextContent); ok {
			if result.Len() > 0 {
				result.WriteString("\n")
			}
			result.WriteString(textContent.Text)
		}
	}
	return result.String()
}

// LoggerAdapter bridges the module logger to the mcp-go logger
// interface.
type LoggerAdapter struct {
	logger *logging.Logger
	ctx    context.Context
}

// NewLoggerAdapter wraps logger for use by MCP transports.
func NewLoggerAdapter(logger *logging.Logger) mcpLogging.Logger {
	return &LoggerAdapter{logger: logger, ctx: context.Background()}
}

func (a *LoggerAdapter) Debug(msg string, args ...interface{}) { a.logger.Debug(a.ctx, msg, args...) }
func (a *LoggerAdapter) Info(msg string, args ...interface{})  { a.logger.Info(a.ctx, msg, args...) }
func (a *LoggerAdapter) Warn(msg string, args ...interface{})  { a.logger.Warn(a.ctx, msg, args...) }
func (a *LoggerAdapter) Error(msg string, args ...interface{}) { a.logger.Error(a.ctx, msg, args...) }
