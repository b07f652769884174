package graph

import "sync"

// record is one queued mutation: exactly one of node or rel is set.
type record struct {
	node *GraphNode
	rel  *GraphRelationship
}

// Writer serializes graph mutations from parallel producers.
//
// Pipeline phases that fan out over files or symbols enqueue nodes and
// relationships here instead of mutating the graph directly; a single
// drain goroutine applies them in arrival order. Close establishes the
// inter-phase ordering guarantee: everything enqueued before Close is
// observable to the next phase.
type Writer struct {
	g    *KnowledgeGraph
	ch   chan record
	done chan struct{}

	mu    sync.Mutex
	nodes int
	rels  int
}

// writerBuffer bounds the queue so runaway producers block instead of
// accumulating unbounded memory.
const writerBuffer = 1024

// NewWriter creates a writer draining into g and starts its apply goroutine.
func NewWriter(g *KnowledgeGraph) *Writer {
	w := &Writer{
		g:    g,
		ch:   make(chan record, writerBuffer),
		done: make(chan struct{}),
	}
	go w.drain()
	return w
}

func (w *Writer) drain() {
	for rec := range w.ch {
		if rec.node != nil {
			w.g.AddNode(rec.node)
			w.mu.Lock()
			w.nodes++
			w.mu.Unlock()
		}
		if rec.rel != nil {
			w.g.AddRelationship(rec.rel)
			w.mu.Lock()
			w.rels++
			w.mu.Unlock()
		}
	}
	close(w.done)
}

// EnqueueNode queues a node insert.
func (w *Writer) EnqueueNode(node *GraphNode) {
	w.ch <- record{node: node}
}

// EnqueueRelationship queues a relationship insert.
func (w *Writer) EnqueueRelationship(rel *GraphRelationship) {
	w.ch <- record{rel: rel}
}

// Close stops accepting records and blocks until the queue is drained.
// The writer cannot be reused afterwards.
func (w *Writer) Close() {
	close(w.ch)
	<-w.done
}

// Counts returns the number of nodes and relationships applied so far.
func (w *Writer) Counts() (nodes, rels int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nodes, w.rels
}
