package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFilesystemRoundTrip(t *testing.T) {
	root := t.TempDir()
	registry := NewRegistry()
	require.NoError(t, RegisterMockFilesystem(registry, root))
	assert.Equal(t, 3, registry.Len())

	ctx := context.Background()

	write, err := registry.Get("write_file")
	require.NoError(t, err)
	_, err = write.Call(ctx, map[string]interface{}{
		"path":    "notes/lesson.txt",
		"content": "validate inputs early",
	})
	require.NoError(t, err)

	read, err := registry.Get("read_file")
	require.NoError(t, err)
	out, err := read.Call(ctx, map[string]interface{}{"path": "notes/lesson.txt"})
	require.NoError(t, err)
	assert.Equal(t, "validate inputs early", out)

	list, err := registry.Get("list_directory")
	require.NoError(t, err)
	out, err = list.Call(ctx, map[string]interface{}{"path": "notes"})
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"lesson.txt"}, names)
}

func TestMockFilesystemRejectsEscapingPaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "jail")
	tool := NewReadFileTool(root)

	_, err := tool.Call(context.Background(), map[string]interface{}{"path": "../outside.txt"})
	assert.Error(t, err)

	_, err = tool.Call(context.Background(), map[string]interface{}{"path": ""})
	assert.Error(t, err)
}

func TestMockSearchTool(t *testing.T) {
	tool := NewSearchTool(map[string][]string{
		"go concurrency": {"share memory by communicating"},
	})

	out, err := tool.Call(context.Background(), map[string]interface{}{"query": "go concurrency"})
	require.NoError(t, err)

	var payload struct {
		Query   string   `json:"query"`
		Results []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "go concurrency", payload.Query)
	assert.Equal(t, []string{"share memory by communicating"}, payload.Results)

	out, err = tool.Call(context.Background(), map[string]interface{}{"query": "unknown"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Empty(t, payload.Results)
}
