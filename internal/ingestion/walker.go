// Package ingestion provides the twelve-phase analysis pipeline for Axon.
package ingestion

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileEntry represents a file accepted by the walker.
type FileEntry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the repo root, forward-slashed.
	RelPath string

	// Language is the detected programming language, or "unknown".
	Language string

	// Content is the file content.
	Content []byte

	// SHA256 is the hash of the file content.
	SHA256 string
}

// Supported file extensions and their languages. Files with other
// extensions are kept as language=unknown File nodes but never parsed.
var supportedExtensions = map[string]string{
	".py":  "python",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".cs":  "csharp",
}

// Default patterns to ignore, in addition to ignore files found in the tree.
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	".axon/",
	"__pycache__/",
	".venv/",
	"venv/",
	".tox/",
	".eggs/",
	"*.egg-info/",
	".pytest_cache/",
	".mypy_cache/",
	"bin/",
	"obj/",
	"dist/",
	"build/",
	"coverage/",
	"htmlcov/",
	".coverage",
	"*.pyc",
	"*.pyo",
	"*.pyd",
	"*.min.js",
	".DS_Store",
	"Thumbs.db",
}

// WalkRepo walks the repository rooted at repoPath and returns all accepted
// files. The effective ignore ruleset is the union of the default patterns
// and every .gitignore found in the tree, each scoped to its directory —
// so a file is excluded if any ancestor's ignore file matches it.
//
// An unreadable repo root is fatal; unreadable files are logged and skipped,
// as is binary content.
func WalkRepo(repoPath string) ([]FileEntry, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, fmt.Errorf("reading repo root: %w", err)
	}

	patterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns))
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	patterns = append(patterns, loadIgnoreFile(repoPath, nil)...)
	matcher := gitignore.NewMatcher(patterns)

	var entries []FileEntry

	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == repoPath {
				return fmt.Errorf("reading repo root: %w", err)
			}
			slog.Warn("walker.skip", "path", path, "err", err)
			return nil
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == repoPath {
				return nil
			}
			if d.Name() == ".git" || matcher.Match(splitPath(relPath), true) {
				return filepath.SkipDir
			}
			// A nested ignore file extends the ruleset for its subtree.
			patterns = append(patterns, loadIgnoreFile(path, splitPath(relPath))...)
			matcher = gitignore.NewMatcher(patterns)
			return nil
		}

		if matcher.Match(splitPath(relPath), false) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("walker.unreadable", "path", relPath, "err", readErr)
			return nil
		}

		if isBinary(content) {
			slog.Warn("walker.binary", "path", relPath)
			return nil
		}

		hash := sha256.Sum256(content)
		entries = append(entries, FileEntry{
			Path:     path,
			RelPath:  relPath,
			Language: languageForFile(d.Name()),
			Content:  content,
			SHA256:   hex.EncodeToString(hash[:]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// loadIgnoreFile parses a directory's .gitignore, scoping its patterns to
// that directory.
func loadIgnoreFile(dir string, domain []string) []gitignore.Pattern {
	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns
}

// languageForFile returns the language for a filename, or "unknown".
func languageForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := supportedExtensions[ext]; ok {
		return lang
	}
	return "unknown"
}

// isBinary reports whether content looks binary: a NUL byte in the first
// 8000 bytes, the same sniff git uses.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

// splitPath splits a slash-separated path into its components.
func splitPath(path string) []string {
	return strings.Split(path, "/")
}
