// Package embeddings provides the encoder contract and a local embedding
// model for Axon.
//
// The pipeline treats the encoder as an opaque collaborator mapping text to
// fixed-dimension vectors; remote model-backed encoders and the local
// TF-IDF encoder below satisfy the same interface.
package embeddings

import "context"

// Dimension is the vector dimension every encoder must produce.
const Dimension = 384

// Encoder maps a batch of texts to vectors.
//
// Encode may fail per item: a nil vector at position i means item i could
// not be encoded and the corresponding node simply gets no vector. A
// non-nil error aborts the batch.
type Encoder interface {
	Encode(ctx context.Context, batch []string) ([][]float32, error)
}
