package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// Mock tools stand in for real MCP servers in tests and demos. They
// expose the same capabilities the generator expects (file access,
// search) without any subprocess or network.

// NewReadFileTool reads files under root. Paths are resolved relative
// to root and may not escape it.
func NewReadFileTool(root string) Tool {
	return Func{
		ToolName:        "read_file",
		ToolDescription: "Read contents of a file",
		Fn: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, err := resolvePath(root, args)
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to read file")
			}
			return string(data), nil
		},
	}
}

// NewWriteFileTool writes files under root.
func NewWriteFileTool(root string) Tool {
	return Func{
		ToolName:        "write_file",
		ToolDescription: "Write content to a file",
		Fn: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, err := resolvePath(root, args)
			if err != nil {
				return "", err
			}
			content, _ := args["content"].(string)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to create directory")
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to write file")
			}
			return fmt.Sprintf("written to %s", path), nil
		},
	}
}

// NewListDirectoryTool lists directories under root.
func NewListDirectoryTool(root string) Tool {
	return Func{
		ToolName:        "list_directory",
		ToolDescription: "List contents of a directory",
		Fn: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, err := resolvePath(root, args)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to list directory")
			}
			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			data, err := json.Marshal(names)
			if err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to encode listing")
			}
			return string(data), nil
		},
	}
}

// NewSearchTool answers queries from a fixed result table keyed by
// query substring. Unmatched queries get an empty result list.
func NewSearchTool(results map[string][]string) Tool {
	return Func{
		ToolName:        "search_web",
		ToolDescription: "Search the web for information",
		Fn: func(_ context.Context, args map[string]interface{}) (string, error) {
			query, _ := args["query"].(string)
			matches := results[query]
			data, err := json.Marshal(map[string]interface{}{
				"query":   query,
				"results": matches,
			})
			if err != nil {
				return "", errors.Wrap(err, errors.ToolExecutionFailed, "failed to encode search results")
			}
			return string(data), nil
		},
	}
}

// RegisterMockFilesystem registers the three filesystem tools rooted
// at root.
func RegisterMockFilesystem(registry *Registry, root string) error {
	for _, tool := range []Tool{
		NewReadFileTool(root),
		NewWriteFileTool(root),
		NewListDirectoryTool(root),
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func resolvePath(root string, args map[string]interface{}) (string, error) {
	raw, _ := args["path"].(string)
	if raw == "" {
		return "", errors.New(errors.InvalidInput, "path argument is required")
	}

	path := filepath.Join(root, raw)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.WithFields(
			errors.New(errors.InvalidInput, "path escapes the tool root"),
			errors.Fields{"path": raw},
		)
	}
	return path, nil
}
