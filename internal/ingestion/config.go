package ingestion

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config controls pipeline behavior. It is loaded from .axon/config.yaml
// when present; CLI flags override individual fields.
type Config struct {
	// SourceRoots are the directories package-absolute import specifiers
	// are resolved against, in order.
	SourceRoots []string `yaml:"source_roots"`

	// Embeddings toggles the embedding generation phase.
	Embeddings bool `yaml:"embeddings"`

	// FlowDepth bounds the BFS of the process detector.
	FlowDepth int `yaml:"flow_depth"`

	// CouplingWindowDays is the git-history window for change coupling.
	CouplingWindowDays int `yaml:"coupling_window_days"`
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		SourceRoots:        []string{"", "src"},
		Embeddings:         true,
		FlowDepth:          6,
		CouplingWindowDays: 180,
	}
}

// LoadConfig reads .axon/config.yaml under repoPath, falling back to
// defaults when the file is absent. A malformed file is an error; a missing
// one is not.
func LoadConfig(repoPath string) (Config, error) {
	cfg := DefaultConfig()

	content, err := os.ReadFile(filepath.Join(repoPath, ".axon", "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	if cfg.FlowDepth <= 0 {
		cfg.FlowDepth = 6
	}
	if cfg.CouplingWindowDays <= 0 {
		cfg.CouplingWindowDays = 180
	}
	if len(cfg.SourceRoots) == 0 {
		cfg.SourceRoots = []string{"", "src"}
	}
	return cfg, nil
}
