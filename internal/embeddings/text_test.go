package embeddings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spark-cjbot/axon/internal/graph"
)

func TestEncodingText(t *testing.T) {
	t.Parallel()

	t.Run("CombinesNameSignatureSnippet", func(t *testing.T) {
		node := &graph.GraphNode{
			Name:      "User.save",
			Signature: "def save(self) -> bool",
			Content:   "def save(self) -> bool:\n    return self.db.commit()",
		}

		text := EncodingText(node)
		assert.Contains(t, text, "User.save")
		assert.Contains(t, text, "def save(self) -> bool")
		assert.Contains(t, text, "self.db.commit()")
	})

	t.Run("TruncatesLongBodies", func(t *testing.T) {
		node := &graph.GraphNode{
			Name:    "f",
			Content: strings.Repeat("x", 5000),
		}

		text := EncodingText(node)
		assert.Less(t, len(text), 1000)
	})

	t.Run("NilNode", func(t *testing.T) {
		assert.Equal(t, "", EncodingText(nil))
	})
}
