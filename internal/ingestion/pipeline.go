package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spark-cjbot/axon/internal/embeddings"
	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/storage"
)

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	Files         int                `json:"files"`
	Symbols       int                `json:"symbols"`
	Relationships int                `json:"relationships"`
	CallEdges     int                `json:"call_edges"`
	Communities   int                `json:"communities"`
	Processes     int                `json:"processes"`
	DeadCode      int                `json:"dead_code"`
	CoupledPairs  int                `json:"coupled_pairs"`
	Embeddings    int                `json:"embeddings"`
	Commit        string             `json:"commit"`
	DurationSecs  float64            `json:"duration_secs"`
	PhaseTimings  map[string]float64 `json:"phase_timings"`
	NodeCounts    map[string]int     `json:"node_counts"`
}

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Pipeline drives the twelve analysis phases over one repository.
type Pipeline struct {
	RepoPath string
	Config   Config
	Store    storage.StorageBackend
	Encoder  embeddings.Encoder
	Log      ChangeLog
	Progress ProgressCallback
}

// NewPipeline creates a pipeline with the default collaborators: git-backed
// change log and the local TF-IDF encoder.
func NewPipeline(repoPath string, cfg Config, store storage.StorageBackend) *Pipeline {
	return &Pipeline{
		RepoPath: repoPath,
		Config:   cfg,
		Store:    store,
		Encoder:  embeddings.NewTFIDFEncoder(),
		Log:      GitChangeLog{},
	}
}

// RunPipeline runs the full ingestion pipeline with default collaborators.
func RunPipeline(
	ctx context.Context,
	repoPath string,
	store storage.StorageBackend,
	cfg Config,
	progress ProgressCallback,
) (*graph.KnowledgeGraph, *PipelineResult, error) {
	p := NewPipeline(repoPath, cfg, store)
	p.Progress = progress
	return p.Run(ctx)
}

// Run executes the phases in order. Each phase reads the graph state its
// predecessors committed; a cancellation observed between phases (or inside
// parallel ones) discards the graph and persists nothing. Persistence
// happens exactly once, after the last phase.
func (p *Pipeline) Run(ctx context.Context) (*graph.KnowledgeGraph, *PipelineResult, error) {
	started := time.Now()
	result := &PipelineResult{
		PhaseTimings: make(map[string]float64),
		Commit:       HeadCommit(p.RepoPath),
	}

	g := graph.NewKnowledgeGraph()
	var entries []FileEntry
	var parseData *ParseData

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"walk", func(context.Context) error {
			var err error
			entries, err = WalkRepo(p.RepoPath)
			result.Files = len(entries)
			return err
		}},
		{"structure", func(context.Context) error {
			ProcessStructure(entries, g)
			return nil
		}},
		{"parse", func(phaseCtx context.Context) error {
			var err error
			parseData, err = ProcessParsing(phaseCtx, entries, g)
			return err
		}},
		{"imports", func(context.Context) error {
			ProcessImports(parseData, g, p.Config.SourceRoots)
			return nil
		}},
		{"calls", func(context.Context) error {
			result.CallEdges = ProcessCalls(parseData, g)
			return nil
		}},
		{"heritage", func(context.Context) error {
			ProcessHeritage(g)
			return nil
		}},
		{"types", func(context.Context) error {
			ProcessTypes(parseData, g)
			return nil
		}},
		{"communities", func(context.Context) error {
			result.Communities = DetectCommunities(g)
			return nil
		}},
		{"processes", func(context.Context) error {
			result.Processes = ProcessFlows(parseData, g, p.Config.FlowDepth)
			return nil
		}},
		{"deadcode", func(context.Context) error {
			result.DeadCode = ProcessDeadCode(g)
			return nil
		}},
		{"coupling", func(context.Context) error {
			result.CoupledPairs = ProcessCoupling(g, p.RepoPath, p.Log, p.Config.CouplingWindowDays)
			return nil
		}},
		{"embeddings", func(phaseCtx context.Context) error {
			if !p.Config.Embeddings || p.Encoder == nil {
				return nil
			}
			result.Embeddings = ProcessEmbeddings(phaseCtx, g, p.Encoder)
			return nil
		}},
	}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		p.report(phase.name, 0.0)
		phaseStart := time.Now()
		if err := phase.run(ctx); err != nil {
			return nil, nil, fmt.Errorf("phase %s: %w", phase.name, err)
		}
		elapsed := time.Since(phaseStart)
		result.PhaseTimings[phase.name] = elapsed.Seconds()
		p.report(phase.name, 1.0)

		slog.Info("pipeline.phase", "phase", phase.name, "elapsed", elapsed)
	}

	result.Symbols = countSymbols(g)
	result.Relationships = g.RelationshipCount()
	result.NodeCounts = g.Stats()
	result.DurationSecs = time.Since(started).Seconds()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if p.Store != nil {
		p.report("persist", 0.0)
		if err := p.Store.BulkLoad(ctx, g); err != nil {
			return nil, nil, fmt.Errorf("bulk load: %w", err)
		}
		p.report("persist", 1.0)
	}

	slog.Info("pipeline.done",
		"files", result.Files,
		"symbols", result.Symbols,
		"relationships", result.Relationships,
		"dead", result.DeadCode,
	)
	return g, result, nil
}

func (p *Pipeline) report(phase string, progress float64) {
	if p.Progress != nil {
		p.Progress(phase, progress)
	}
}

func countSymbols(g *graph.KnowledgeGraph) int {
	count := 0
	for _, label := range graph.SymbolLabels {
		count += g.CountNodesByLabel(label)
	}
	return count
}
