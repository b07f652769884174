package ingestion

import (
	"context"
	"log/slog"

	"github.com/spark-cjbot/axon/internal/embeddings"
	"github.com/spark-cjbot/axon/internal/graph"
)

// embedBatchSize bounds the number of texts per encoder call.
const embedBatchSize = 64

// ProcessEmbeddings encodes every symbol once, from the symbol's name,
// signature, and body snippet, sending the texts to the encoder in batches
// of embedBatchSize, and stores the resulting vector on the node. Per-item
// encoder failures leave the node vectorless; a batch error is surfaced only
// through the log, since embeddings are optional. Returns the number of
// vectors stored.
func ProcessEmbeddings(ctx context.Context, g *graph.KnowledgeGraph, encoder embeddings.Encoder) int {
	symbols := g.SymbolNodes()
	if len(symbols) == 0 {
		return 0
	}

	if fitter, ok := encoder.(interface{ Fit([]string) }); ok {
		docs := make([]string, len(symbols))
		for i, node := range symbols {
			docs[i] = embeddings.EncodingText(node)
		}
		fitter.Fit(docs)
	}

	stored := 0
	for start := 0; start < len(symbols); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return stored
		}

		end := start + embedBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[start:end]

		batch := make([]string, len(chunk))
		for i, node := range chunk {
			batch[i] = embeddings.EncodingText(node)
		}

		vectors, err := encoder.Encode(ctx, batch)
		if err != nil {
			slog.Warn("embeddings.batch", "err", err)
			continue
		}

		for i, vector := range vectors {
			if vector == nil {
				continue
			}
			chunk[i].Embedding = vector
			stored++
		}
	}

	return stored
}
