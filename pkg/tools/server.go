package tools

import (
	"context"
	"os"
	"os/exec"

	"github.com/XiaoConstantine/mcp-go/pkg/client"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

// ServerHandle owns one MCP server subprocess and its client.
type ServerHandle struct {
	Name   string
	Client *client.Client
	cmd    *exec.Cmd
}

// StartServer launches an MCP server subprocess, performs the
// initialize handshake and registers its tools.
func StartServer(ctx context.Context, registry *Registry, name, command string, args ...string) (*ServerHandle, error) {
	logger := logging.GetLogger()

	cmd := exec.CommandContext(ctx, command, args...)
	serverIn, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ToolExecutionFailed, "failed to create stdin pipe")
	}
	serverOut, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ToolExecutionFailed, "failed to create stdout pipe")
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ToolExecutionFailed, "failed to start MCP server"),
			errors.Fields{"server": name, "command": command},
		)
	}

	mcpClient, err := NewMCPClientFromStdio(serverOut, serverIn, MCPClientOptions{
		ClientName:    "ace-go",
		ClientVersion: "0.1.0",
		Logger:        NewLoggerAdapter(logger),
	})
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	if err := RegisterMCPTools(registry, mcpClient); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	logger.Info(ctx, "MCP server %q started with %d tools registered", name, registry.Len())
	return &ServerHandle{Name: name, Client: mcpClient, cmd: cmd}, nil
}

// Close terminates the server subprocess.
func (h *ServerHandle) Close() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil {
		return errors.Wrap(err, errors.ToolExecutionFailed, "failed to stop MCP server")
	}
	_ = h.cmd.Wait()
	return nil
}
