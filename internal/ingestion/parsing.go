package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/parsers"
)

// ParseData holds per-file parse results for the resolver phases.
type ParseData struct {
	mu    sync.RWMutex
	Files map[string]*parsers.ParseResult
}

// NewParseData creates a new ParseData instance.
func NewParseData() *ParseData {
	return &ParseData{Files: make(map[string]*parsers.ParseResult)}
}

// AddFile adds parsing results for a file.
func (p *ParseData) AddFile(relPath string, result *parsers.ParseResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Files[relPath] = result
}

// Get returns the parse result for a file, or nil.
func (p *ParseData) Get(relPath string) *parsers.ParseResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Files[relPath]
}

// ProcessParsing parses all files in parallel and drains symbol nodes plus
// DEFINES / CONTAINS / EXPORTS edges through the single-writer sink.
//
// A file whose parser fails keeps its File node, gains parse_failed=true,
// and contributes no symbols.
func ProcessParsing(ctx context.Context, entries []FileEntry, g *graph.KnowledgeGraph) (*ParseData, error) {
	parseData := NewParseData()
	writer := graph.NewWriter(g)

	type parseOutcome struct {
		entry  FileEntry
		result *parsers.ParseResult
		failed bool
	}
	outcomes := make([]parseOutcome, len(entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())

	for i, entry := range entries {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			parser := parsers.ForLanguage(entry.Language)
			if parser == nil {
				outcomes[i] = parseOutcome{entry: entry}
				return nil
			}

			result, err := parser.Parse(entry.RelPath, entry.Content)
			if err != nil {
				slog.Warn("parse.failed", "path", entry.RelPath, "err", err)
				outcomes[i] = parseOutcome{entry: entry, failed: true}
				return nil
			}
			outcomes[i] = parseOutcome{entry: entry, result: result}
			return nil
		})
	}

	err := eg.Wait()

	// Drain in entry order so node identity is deterministic.
	for _, out := range outcomes {
		if out.failed {
			if fileNode := g.GetNode(graph.GenerateID(graph.NodeFile, out.entry.RelPath, "")); fileNode != nil {
				fileNode.ParseFailed = true
			}
			continue
		}
		if out.result == nil {
			continue
		}
		parseData.AddFile(out.entry.RelPath, out.result)
		enqueueSymbols(writer, out.entry, out.result)
	}

	writer.Close()
	return parseData, err
}

// enqueueSymbols converts one file's parse result into graph records.
func enqueueSymbols(writer *graph.Writer, entry FileEntry, result *parsers.ParseResult) {
	fileID := graph.GenerateID(graph.NodeFile, entry.RelPath, "")
	exported := make(map[string]bool, len(result.Exports))
	for _, name := range result.Exports {
		exported[name] = true
	}

	for _, sym := range result.Symbols {
		nodeID := graph.GenerateID(sym.Kind, entry.RelPath, sym.Name)
		node := &graph.GraphNode{
			ID:              nodeID,
			Label:           sym.Kind,
			Name:            sym.Name,
			FilePath:        entry.RelPath,
			StartLine:       sym.StartLine,
			EndLine:         sym.EndLine,
			Content:         sym.Snippet,
			Signature:       sym.Signature,
			Language:        entry.Language,
			ClassName:       sym.ClassName,
			IsExported:      sym.IsExported,
			IsTest:          sym.IsTest,
			IsCtor:          sym.IsCtor,
			IsProperty:      sym.IsProperty,
			IsOverride:      sym.IsOverride,
			IsStub:          sym.IsStub,
			Arity:           sym.Arity,
			Decorators:      sym.Decorators,
			BasesSyntactic:  sym.Bases,
			MethodsDeclared: sym.MethodsDeclared,
			Variants:        sym.Variants,
			TargetSyntactic: sym.TargetSyntactic,
		}
		if sym.IsDefaultExport {
			node.SetProperty("default_export", true)
		}
		if len(sym.ParamNames) > 0 {
			node.SetProperty("param_names", sym.ParamNames)
		}
		writer.EnqueueNode(node)

		writer.EnqueueRelationship(&graph.GraphRelationship{
			ID:     graph.EdgeID(graph.RelDefines, fileID, nodeID, ""),
			Type:   graph.RelDefines,
			Source: fileID,
			Target: nodeID,
		})
		writer.EnqueueRelationship(&graph.GraphRelationship{
			ID:     graph.EdgeID(graph.RelContains, fileID, nodeID, ""),
			Type:   graph.RelContains,
			Source: fileID,
			Target: nodeID,
		})

		if exported[sym.Name] || (sym.IsExported && sym.ClassName == "") {
			writer.EnqueueRelationship(&graph.GraphRelationship{
				ID:     graph.EdgeID(graph.RelExports, fileID, nodeID, ""),
				Type:   graph.RelExports,
				Source: fileID,
				Target: nodeID,
			})
		}
	}
}
