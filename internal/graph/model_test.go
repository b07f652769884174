package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	t.Parallel()

	t.Run("SymbolID", func(t *testing.T) {
		id := GenerateID(NodeMethod, "src/models/user.py", "User.save")
		assert.Equal(t, "method:src/models/user.py:User.save", id)
	})

	t.Run("FileID", func(t *testing.T) {
		id := GenerateID(NodeFile, "src/models/user.py", "")
		assert.Equal(t, "file:src/models/user.py", id)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := GenerateID(NodeFunction, "a.py", "f")
		b := GenerateID(NodeFunction, "a.py", "f")
		assert.Equal(t, a, b)
	})
}

func TestEdgeID(t *testing.T) {
	t.Parallel()

	t.Run("WithoutRole", func(t *testing.T) {
		id := EdgeID(RelCalls, "function:a.py:f", "function:b.py:g", "")
		assert.Equal(t, "calls:function:a.py:f>function:b.py:g", id)
	})

	t.Run("RoleDistinguishesEdges", func(t *testing.T) {
		param := EdgeID(RelUsesType, "s", "t", RoleParam)
		ret := EdgeID(RelUsesType, "s", "t", RoleReturn)
		assert.NotEqual(t, param, ret)
	})
}

func TestIsSymbolLabel(t *testing.T) {
	t.Parallel()

	for _, label := range SymbolLabels {
		assert.True(t, IsSymbolLabel(label), string(label))
	}
	assert.False(t, IsSymbolLabel(NodeFile))
	assert.False(t, IsSymbolLabel(NodeFolder))
	assert.False(t, IsSymbolLabel(NodeCommunity))
	assert.False(t, IsSymbolLabel(NodeProcess))
}

func TestRelationshipAccessors(t *testing.T) {
	t.Parallel()

	rel := &GraphRelationship{
		Properties: map[string]any{"confidence": 0.8, "role": RoleParam},
	}
	assert.Equal(t, 0.8, rel.Confidence())
	assert.Equal(t, RoleParam, rel.Role())

	empty := &GraphRelationship{}
	assert.Equal(t, 0.0, empty.Confidence())
	assert.Equal(t, "", empty.Role())
}
