package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/parsers"
)

func TestProcessTypes(t *testing.T) {
	t.Parallel()

	t.Run("EmitsRolePerOccurrence", func(t *testing.T) {
		g := graph.NewKnowledgeGraph()
		fn := addFunction(g, "a.py", "save")
		user := addClass(g, "models.py", "User")

		pd := NewParseData()
		pd.AddFile("a.py", &parsers.ParseResult{
			Language: "python",
			TypeRefs: []parsers.TypeRef{
				{Owner: "save", OwnerKind: graph.NodeFunction, Name: "User", Role: graph.RoleParam},
				{Owner: "save", OwnerKind: graph.NodeFunction, Name: "User", Role: graph.RoleReturn},
			},
		})

		count := ProcessTypes(pd, g)
		assert.Equal(t, 2, count)

		edges := g.GetOutgoing(fn.ID, graph.RelUsesType)
		require.Len(t, edges, 2)
		roles := map[string]bool{}
		for _, e := range edges {
			assert.Equal(t, user.ID, e.Target)
			roles[e.Role()] = true
		}
		assert.True(t, roles[graph.RoleParam])
		assert.True(t, roles[graph.RoleReturn])
	})

	t.Run("TripleWrittenOnce", func(t *testing.T) {
		g := graph.NewKnowledgeGraph()
		fn := addFunction(g, "a.py", "save")
		addClass(g, "models.py", "User")

		pd := NewParseData()
		pd.AddFile("a.py", &parsers.ParseResult{
			Language: "python",
			TypeRefs: []parsers.TypeRef{
				{Owner: "save", OwnerKind: graph.NodeFunction, Name: "User", Role: graph.RoleParam},
				{Owner: "save", OwnerKind: graph.NodeFunction, Name: "User", Role: graph.RoleParam},
			},
		})

		count := ProcessTypes(pd, g)
		assert.Equal(t, 1, count)
		assert.Len(t, g.GetOutgoing(fn.ID, graph.RelUsesType), 1)
	})

	t.Run("PoolRestrictedToTypeKinds", func(t *testing.T) {
		g := graph.NewKnowledgeGraph()
		addFunction(g, "a.py", "save")
		// A function named User must not become a USES_TYPE target.
		addFunction(g, "models.py", "User")

		pd := NewParseData()
		pd.AddFile("a.py", &parsers.ParseResult{
			Language: "python",
			TypeRefs: []parsers.TypeRef{
				{Owner: "save", OwnerKind: graph.NodeFunction, Name: "User", Role: graph.RoleParam},
			},
		})

		count := ProcessTypes(pd, g)
		assert.Equal(t, 0, count)
	})

	t.Run("EnumAndAliasTargets", func(t *testing.T) {
		g := graph.NewKnowledgeGraph()
		fn := addFunction(g, "a.ts", "describe")
		role := &graph.GraphNode{
			ID:    graph.GenerateID(graph.NodeEnum, "types.ts", "Role"),
			Label: graph.NodeEnum, Name: "Role", FilePath: "types.ts",
		}
		g.AddNode(role)
		alias := &graph.GraphNode{
			ID:    graph.GenerateID(graph.NodeTypeAlias, "types.ts", "UserID"),
			Label: graph.NodeTypeAlias, Name: "UserID", FilePath: "types.ts",
		}
		g.AddNode(alias)

		pd := NewParseData()
		pd.AddFile("a.ts", &parsers.ParseResult{
			Language: "typescript",
			TypeRefs: []parsers.TypeRef{
				{Owner: "describe", OwnerKind: graph.NodeFunction, Name: "Role", Role: graph.RoleParam},
				{Owner: "describe", OwnerKind: graph.NodeFunction, Name: "UserID", Role: graph.RoleVariable},
			},
		})

		count := ProcessTypes(pd, g)
		assert.Equal(t, 2, count)
		assert.Len(t, g.GetOutgoing(fn.ID, graph.RelUsesType), 2)
	})
}
