package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/storage"
)

// Watcher tuning: change events are debounced, and the global analysis
// phases (communities, flows, dead code, coupling) re-run at most once per
// interval since they need the whole graph.
const (
	watchDebounce       = 2 * time.Second
	globalPhaseInterval = 30 * time.Second
)

// WatchRepo monitors a repository for file changes and re-indexes
// incrementally. Blocks until the context is cancelled.
func WatchRepo(ctx context.Context, repoPath string, store storage.StorageBackend) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, repoPath); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	lastGlobalPhase := time.Now()
	changed := make(map[string]bool)
	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()

	slog.Info("watch.start", "path", repoPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			relPath, relErr := filepath.Rel(repoPath, event.Name)
			if relErr != nil {
				continue
			}
			relPath = filepath.ToSlash(relPath)
			if languageForFile(relPath) == "unknown" {
				continue
			}
			changed[relPath] = true
			debounce.Reset(watchDebounce)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch.error", "err", watchErr)

		case <-debounce.C:
			if len(changed) == 0 {
				continue
			}
			if err := reindexChanged(ctx, repoPath, store, changed); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("watch.reindex", "err", err)
			}
			changed = make(map[string]bool)

			if time.Since(lastGlobalPhase) >= globalPhaseInterval {
				slog.Info("watch.global_phases")
				cfg, _ := LoadConfig(repoPath)
				if _, _, err := RunPipeline(ctx, repoPath, store, cfg, nil); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					slog.Warn("watch.global_phases.err", "err", err)
				}
				lastGlobalPhase = time.Now()
			}
		}
	}
}

// addWatchDirs registers every non-ignored directory with the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, repoPath string) error {
	return filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case ".git", "node_modules", ".axon", "__pycache__", ".venv", "venv", "dist", "build", "bin", "obj":
			if path != repoPath {
				return filepath.SkipDir
			}
		}
		return watcher.Add(path)
	})
}

// reindexChanged re-runs the file-local phases for the touched files and
// swaps their nodes in storage. Deleted files have their nodes removed.
func reindexChanged(ctx context.Context, repoPath string, store storage.StorageBackend, changed map[string]bool) error {
	entries := make([]FileEntry, 0, len(changed))
	for relPath := range changed {
		absPath := filepath.Join(repoPath, relPath)

		info, err := os.Stat(absPath)
		if os.IsNotExist(err) {
			if _, rmErr := store.RemoveNodesByFile(ctx, relPath); rmErr != nil {
				slog.Warn("watch.remove", "path", relPath, "err", rmErr)
			}
			continue
		}
		if err != nil || info.IsDir() {
			continue
		}

		content, err := os.ReadFile(absPath)
		if err != nil {
			slog.Warn("watch.read", "path", relPath, "err", err)
			continue
		}
		if isBinary(content) {
			continue
		}

		hash := sha256.Sum256(content)
		entries = append(entries, FileEntry{
			Path:     absPath,
			RelPath:  relPath,
			Language: languageForFile(relPath),
			Content:  content,
			SHA256:   hex.EncodeToString(hash[:]),
		})
	}

	if len(entries) == 0 {
		return nil
	}

	slog.Info("watch.reindex", "files", len(entries))

	for _, entry := range entries {
		if _, err := store.RemoveNodesByFile(ctx, entry.RelPath); err != nil {
			return err
		}
	}

	g, err := runFileLocalPhases(ctx, entries)
	if err != nil {
		return err
	}
	return store.BulkLoad(ctx, g)
}

// runFileLocalPhases runs phases 2-7 over just the given entries. The
// global phases are deferred to the next full pipeline run.
func runFileLocalPhases(ctx context.Context, entries []FileEntry) (*graph.KnowledgeGraph, error) {
	g := graph.NewKnowledgeGraph()

	ProcessStructure(entries, g)

	parseData, err := ProcessParsing(ctx, entries, g)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	ProcessImports(parseData, g, cfg.SourceRoots)
	ProcessCalls(parseData, g)
	ProcessHeritage(g)
	ProcessTypes(parseData, g)

	return g, nil
}
