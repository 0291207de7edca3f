package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foremast/foremast/pkg/node"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func moduleOptions(dir string) Options {
	opts := DefaultOptions()
	opts.Dir = dir
	return opts
}

func assertNode(t *testing.T, want, got node.Node) {
	t.Helper()
	assert.True(t, node.Equal(want, got), "want %s, got %s", want, got)
}
