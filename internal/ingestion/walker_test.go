package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func entryPaths(entries []FileEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	return paths
}

func TestWalkRepo(t *testing.T) {
	t.Parallel()

	t.Run("CollectsSupportedFiles", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{
			"a.py":          "def f():\n    pass\n",
			"src/b.ts":      "export function g() {}\n",
			"src/c.cs":      "public class C { }\n",
			"docs/notes.md": "# notes\n",
		})

		entries, err := WalkRepo(tmpDir)
		require.NoError(t, err)

		paths := entryPaths(entries)
		assert.Contains(t, paths, "a.py")
		assert.Contains(t, paths, "src/b.ts")
		assert.Contains(t, paths, "src/c.cs")
		// Unknown extensions are kept, just not parsed.
		assert.Contains(t, paths, "docs/notes.md")

		for _, e := range entries {
			if e.RelPath == "docs/notes.md" {
				assert.Equal(t, "unknown", e.Language)
			}
			if e.RelPath == "a.py" {
				assert.Equal(t, "python", e.Language)
				assert.NotEmpty(t, e.SHA256)
			}
		}
	})

	t.Run("HonorsRootGitignore", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{
			".gitignore":   "generated/\n*.gen.py\n",
			"a.py":         "x = 1\n",
			"a.gen.py":     "x = 1\n",
			"generated/b.py": "x = 1\n",
		})

		entries, err := WalkRepo(tmpDir)
		require.NoError(t, err)

		paths := entryPaths(entries)
		assert.Contains(t, paths, "a.py")
		assert.NotContains(t, paths, "a.gen.py")
		assert.NotContains(t, paths, "generated/b.py")
	})

	t.Run("HonorsNestedGitignore", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{
			"pkg/.gitignore": "local.py\n",
			"pkg/local.py":   "x = 1\n",
			"pkg/kept.py":    "x = 1\n",
			"local.py":       "x = 1\n",
		})

		entries, err := WalkRepo(tmpDir)
		require.NoError(t, err)

		paths := entryPaths(entries)
		// The nested ignore file scopes to its own subtree.
		assert.NotContains(t, paths, "pkg/local.py")
		assert.Contains(t, paths, "pkg/kept.py")
		assert.Contains(t, paths, "local.py")
	})

	t.Run("SkipsDefaultIgnoreDirs", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{
			"node_modules/dep/index.js": "module.exports = {};\n",
			"__pycache__/a.pyc":         "binary",
			"main.py":                   "x = 1\n",
		})

		entries, err := WalkRepo(tmpDir)
		require.NoError(t, err)

		paths := entryPaths(entries)
		assert.Equal(t, []string{"main.py"}, paths)
	})

	t.Run("SkipsBinaryContent", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(tmpDir, "blob.py"),
			[]byte{0x00, 0x01, 0x02, 'x'},
			0o644,
		))

		entries, err := WalkRepo(tmpDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("MissingRootIsFatal", func(t *testing.T) {
		_, err := WalkRepo(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("EmptyRepo", func(t *testing.T) {
		entries, err := WalkRepo(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "python", languageForFile("a.py"))
	assert.Equal(t, "typescript", languageForFile("a.tsx"))
	assert.Equal(t, "javascript", languageForFile("a.mjs"))
	assert.Equal(t, "csharp", languageForFile("A.cs"))
	assert.Equal(t, "unknown", languageForFile("a.rb"))
}

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.True(t, isBinary([]byte{0x00, 'a'}))
	assert.False(t, isBinary([]byte("plain text")))
	assert.False(t, isBinary(nil))
}
