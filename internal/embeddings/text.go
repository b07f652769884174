package embeddings

import (
	"strings"

	"github.com/spark-cjbot/axon/internal/graph"
)

// maxSnippetLen bounds how much symbol body feeds the encoder.
const maxSnippetLen = 500

// EncodingText builds the encoder input for a symbol: name, signature, and
// body snippet.
func EncodingText(node *graph.GraphNode) string {
	if node == nil {
		return ""
	}

	var parts []string
	parts = append(parts, node.Name)
	if node.Signature != "" {
		parts = append(parts, node.Signature)
	}
	if node.Content != "" {
		snippet := node.Content
		if len(snippet) > maxSnippetLen {
			snippet = snippet[:maxSnippetLen]
		}
		parts = append(parts, snippet)
	}

	return strings.Join(parts, "\n")
}
