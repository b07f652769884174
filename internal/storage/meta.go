package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is bumped whenever the persisted node/edge layout changes.
const SchemaVersion = 2

// Meta is the sidecar metadata written next to the backend's files in the
// .axon/ directory.
type Meta struct {
	SchemaVersion int                `json:"schema_version"`
	Commit        string             `json:"commit"`
	IndexedAt     time.Time          `json:"indexed_at"`
	PhaseTimings  map[string]float64 `json:"phase_timings"`
	Counts        map[string]int     `json:"counts"`
}

// WriteMeta writes meta.json under the repo's .axon directory.
func WriteMeta(repoPath string, meta Meta) error {
	axonDir := filepath.Join(repoPath, ".axon")
	if err := os.MkdirAll(axonDir, 0o755); err != nil {
		return &StorageError{Op: "write_meta", Err: err}
	}

	meta.SchemaVersion = SchemaVersion
	if meta.IndexedAt.IsZero() {
		meta.IndexedAt = time.Now().UTC()
	}

	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &StorageError{Op: "write_meta", Err: err}
	}
	content = append(content, '\n')

	if err := os.WriteFile(filepath.Join(axonDir, "meta.json"), content, 0o644); err != nil {
		return &StorageError{Op: "write_meta", Err: err}
	}
	return nil
}

// ReadMeta loads meta.json from the repo's .axon directory.
func ReadMeta(repoPath string) (*Meta, error) {
	content, err := os.ReadFile(filepath.Join(repoPath, ".axon", "meta.json"))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
