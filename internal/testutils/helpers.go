package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/brief/pkg/sample"
	"github.com/stretchr/testify/require"
)

// SetupWorkspace creates a temporary feedback workspace holding the given files
// (paths relative to the root). It returns the absolute path to the workspace.
// It fails the test immediately on error.
func SetupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(absPath, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write %s", name)
	}
	return absPath
}

// SampleWorkspace returns the file set of the bundled reference workspace:
// the sample template without frontmatter and its partials.
func SampleWorkspace() map[string]string {
	files := map[string]string{
		"feedback.md": sample.Template(),
	}
	for name, body := range sample.Partials() {
		files["partials/"+name+".md"] = body
	}
	return files
}
