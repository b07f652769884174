package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// TFIDFEncoder is a local, dependency-free Encoder: hashed TF-IDF vectors
// over code tokens. Terms are feature-hashed into the fixed Dimension so the
// vocabulary never has to be materialized or persisted.
type TFIDFEncoder struct {
	mu       sync.RWMutex
	idf      map[string]float64
	docCount int
}

// NewTFIDFEncoder creates a new TF-IDF encoder.
func NewTFIDFEncoder() *TFIDFEncoder {
	return &TFIDFEncoder{idf: make(map[string]float64)}
}

// Fit computes IDF statistics over the corpus. Call once before Encode;
// unseen terms at encode time fall back to an IDF of 1.
func (e *TFIDFEncoder) Fit(docs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range tokenize(doc) {
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	e.docCount = len(docs)
	for term, df := range docFreq {
		if df > 0 {
			e.idf[term] = math.Log(float64(e.docCount+1) / float64(df))
		}
	}
}

// Encode implements Encoder. Items that produce no tokens get a nil vector.
func (e *TFIDFEncoder) Encode(ctx context.Context, batch []string) ([][]float32, error) {
	vectors := make([][]float32, len(batch))
	for i, doc := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(doc)
	}
	return vectors, nil
}

func (e *TFIDFEncoder) embed(doc string) []float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	terms := tokenize(doc)
	if len(terms) == 0 {
		return nil
	}

	tf := make(map[string]int, len(terms))
	maxTF := 0
	for _, term := range terms {
		tf[term]++
		if tf[term] > maxTF {
			maxTF = tf[term]
		}
	}

	vector := make([]float32, Dimension)
	for term, count := range tf {
		idf := e.idf[term]
		if idf == 0 {
			idf = 1.0
		}
		weight := (float64(count) / float64(maxTF)) * idf
		vector[bucket(term)] += float32(weight)
	}

	normalize(vector)
	return vector
}

// bucket feature-hashes a term into the vector dimension.
func bucket(term string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int(h.Sum32() % Dimension)
}

// normalize scales the vector to unit length in place.
func normalize(vector []float32) {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 || math.IsNaN(norm) {
		return
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}

// tokenize splits code text into lowercase alphanumeric terms, splitting
// camelCase and snake_case along the way.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() >= 2 {
			terms = append(terms, strings.ToLower(current.String()))
		}
		current.Reset()
	}

	var prev rune
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			current.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			// camelCase boundary
			if prev >= 'a' && prev <= 'z' {
				flush()
			}
			current.WriteRune(r)
		default:
			flush()
		}
		prev = r
	}
	flush()

	return terms
}
