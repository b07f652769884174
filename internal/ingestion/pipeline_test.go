package ingestion

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/storage"
)

func runPipelineOn(t *testing.T, files map[string]string) (*graph.KnowledgeGraph, *PipelineResult) {
	t.Helper()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, files)

	cfg := DefaultConfig()
	cfg.Embeddings = false

	g, result, err := RunPipeline(context.Background(), tmpDir, storage.NewMemoryBackend(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, g)
	require.NotNil(t, result)
	return g, result
}

func TestRunPipeline(t *testing.T) {
	t.Parallel()

	t.Run("TwoPythonFiles", func(t *testing.T) {
		g, result := runPipelineOn(t, map[string]string{
			"a.py": "from b import g\n\n\ndef f():\n    g()\n",
			"b.py": "def g():\n    pass\n",
		})

		assert.Equal(t, 2, result.Files)

		imports := g.GetRelationshipsByType(graph.RelImports)
		require.Len(t, imports, 1)
		assert.Equal(t, "file:a.py", imports[0].Source)
		assert.Equal(t, "file:b.py", imports[0].Target)
		assert.Equal(t, []string{"g"}, imports[0].Properties["symbols"])

		edge := g.GetRelationship(graph.EdgeID(
			graph.RelCalls, "function:a.py:f", "function:b.py:g", ""))
		require.NotNil(t, edge, "expected CALLS f -> g")
		assert.Equal(t, 1.0, edge.Confidence())
	})

	t.Run("EverySymbolDefinedByItsFile", func(t *testing.T) {
		g, _ := runPipelineOn(t, map[string]string{
			"svc.py": "class Service:\n    def run(self):\n        pass\n",
		})

		for _, sym := range g.SymbolNodes() {
			defines := g.GetIncoming(sym.ID, graph.RelDefines)
			require.Len(t, defines, 1, "symbol %s", sym.ID)
			file := g.GetNode(defines[0].Source)
			require.NotNil(t, file)
			assert.Equal(t, graph.NodeFile, file.Label)
			assert.Equal(t, sym.FilePath, file.FilePath)
		}
	})

	t.Run("MethodsReferenceTheirClass", func(t *testing.T) {
		g, _ := runPipelineOn(t, map[string]string{
			"svc.py": "class Service:\n    def run(self):\n        pass\n",
		})

		for _, method := range g.GetNodesByLabel(graph.NodeMethod) {
			class := g.GetNode(graph.GenerateID(graph.NodeClass, method.FilePath, method.ClassName))
			require.NotNil(t, class, "method %s has no class", method.ID)
			assert.Equal(t, method.FilePath, class.FilePath)
		}
	})

	t.Run("CallConfidencesInRange", func(t *testing.T) {
		g, _ := runPipelineOn(t, map[string]string{
			"a.py": "from b import g\n\n\ndef f():\n    g()\n",
			"b.py": "def g():\n    helper()\n\n\ndef helper():\n    pass\n",
		})

		for _, rel := range g.GetRelationshipsByType(graph.RelCalls) {
			c := rel.Confidence()
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	})

	t.Run("EmptyRepo", func(t *testing.T) {
		g, result := runPipelineOn(t, map[string]string{})

		assert.Equal(t, 0, result.Files)
		assert.Equal(t, 0, result.Symbols)
		assert.Equal(t, 0, g.NodeCount())
	})

	t.Run("UnparseableFileKeepsFileNode", func(t *testing.T) {
		// An unknown extension is never parsed; the File node survives with
		// zero symbols.
		g, result := runPipelineOn(t, map[string]string{
			"data.txt": "not code\n",
		})

		assert.Equal(t, 1, result.Files)
		assert.Equal(t, 0, result.Symbols)
		file := g.GetNode("file:data.txt")
		require.NotNil(t, file)
		assert.Equal(t, "unknown", file.Language)
	})

	t.Run("NoGitHistoryNoCoupling", func(t *testing.T) {
		g, result := runPipelineOn(t, map[string]string{
			"a.py": "def f():\n    pass\n",
		})

		assert.Equal(t, 0, result.CoupledPairs)
		assert.Empty(t, g.GetRelationshipsByType(graph.RelCoupledWith))
	})

	t.Run("IdempotentPerRepo", func(t *testing.T) {
		files := map[string]string{
			"a.py": "from b import g\n\n\ndef f():\n    g()\n",
			"b.py": "def g():\n    pass\n",
		}

		snapshot := func() ([]string, []string) {
			g, _ := runPipelineOn(t, files)
			var nodeIDs, relIDs []string
			for _, n := range g.Nodes() {
				nodeIDs = append(nodeIDs, n.ID)
			}
			for _, r := range g.Relationships() {
				relIDs = append(relIDs, r.ID)
			}
			sort.Strings(nodeIDs)
			sort.Strings(relIDs)
			return nodeIDs, relIDs
		}

		nodes1, rels1 := snapshot()
		nodes2, rels2 := snapshot()
		assert.Equal(t, nodes1, nodes2)
		assert.Equal(t, rels1, rels2)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{"a.py": "def f():\n    pass\n"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		store := storage.NewMemoryBackend()
		g, result, err := RunPipeline(ctx, tmpDir, store, DefaultConfig(), nil)
		assert.Error(t, err)
		assert.Nil(t, g)
		assert.Nil(t, result)
		assert.Equal(t, 0, store.NodeCount())
	})

	t.Run("PhaseTimingsRecorded", func(t *testing.T) {
		_, result := runPipelineOn(t, map[string]string{
			"a.py": "def f():\n    pass\n",
		})

		for _, phase := range []string{
			"walk", "structure", "parse", "imports", "calls", "heritage",
			"types", "communities", "processes", "deadcode", "coupling",
		} {
			assert.Contains(t, result.PhaseTimings, phase)
		}
	})

	t.Run("EmbeddingsStoredOnSymbols", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{
			"a.py": "def f():\n    pass\n\n\ndef g():\n    f()\n",
		})

		cfg := DefaultConfig()
		g, result, err := RunPipeline(context.Background(), tmpDir, storage.NewMemoryBackend(), cfg, nil)
		require.NoError(t, err)
		assert.Greater(t, result.Embeddings, 0)

		withVector := 0
		for _, sym := range g.SymbolNodes() {
			if len(sym.Embedding) == 384 {
				withVector++
			}
		}
		assert.Equal(t, result.Embeddings, withVector)
	})
}
