// Package graph provides the in-memory knowledge graph for Axon.
//
// It provides a lightweight, map-backed graph that stores GraphNode and
// GraphRelationship instances with O(1) lookups by ID. Secondary indexes
// on label, relationship type, and adjacency lists ensure that queries
// scale linearly with the result set rather than the total graph size.
package graph

import (
	"sort"
	"sync"
)

// KnowledgeGraph is an in-memory directed graph of code-level entities
// and their relationships.
//
// Nodes are keyed by their ID string; relationships are keyed likewise.
// Removing a node cascades to any relationship where the node appears as
// source or target.
//
// All query methods are backed by secondary indexes so that lookups by
// label, relationship type, or adjacency are O(result) rather than O(graph).
// Slice-returning accessors sort by ID so consumers observe a stable order
// across runs.
type KnowledgeGraph struct {
	mu            sync.RWMutex
	nodes         map[string]*GraphNode
	relationships map[string]*GraphRelationship

	// Secondary indexes — kept in sync by add/remove helpers.
	byLabel   map[NodeLabel]map[string]*GraphNode
	byRelType map[RelType]map[string]*GraphRelationship
	outgoing  map[string]map[string]*GraphRelationship
	incoming  map[string]map[string]*GraphRelationship

	// byName indexes symbol nodes by bare name for resolver candidate pools.
	byName map[string]map[string]*GraphNode
}

// NewKnowledgeGraph creates a new empty knowledge graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:         make(map[string]*GraphNode),
		relationships: make(map[string]*GraphRelationship),
		byLabel:       make(map[NodeLabel]map[string]*GraphNode),
		byRelType:     make(map[RelType]map[string]*GraphRelationship),
		outgoing:      make(map[string]map[string]*GraphRelationship),
		incoming:      make(map[string]map[string]*GraphRelationship),
		byName:        make(map[string]map[string]*GraphNode),
	}
}

// NodeCount returns the number of nodes without list materialization.
func (g *KnowledgeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// RelationshipCount returns the number of relationships without list materialization.
func (g *KnowledgeGraph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relationships)
}

// CountNodesByLabel returns the count of nodes with the given label.
func (g *KnowledgeGraph) CountNodesByLabel(label NodeLabel) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if nodes, ok := g.byLabel[label]; ok {
		return len(nodes)
	}
	return 0
}

// Nodes returns a snapshot of all nodes, sorted by ID.
func (g *KnowledgeGraph) Nodes() []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*GraphNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		result = append(result, node)
	}
	sortNodes(result)
	return result
}

// Relationships returns a snapshot of all relationships, sorted by ID.
func (g *KnowledgeGraph) Relationships() []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*GraphRelationship, 0, len(g.relationships))
	for _, rel := range g.relationships {
		result = append(result, rel)
	}
	sortRels(result)
	return result
}

// SymbolNodes returns a snapshot of all symbol nodes, sorted by ID.
func (g *KnowledgeGraph) SymbolNodes() []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []*GraphNode
	for _, label := range SymbolLabels {
		for _, node := range g.byLabel[label] {
			result = append(result, node)
		}
	}
	sortNodes(result)
	return result
}

// AddNode adds a node to the graph, replacing any existing node with the same ID.
// If the node's label differs from an existing node, the old label index is updated.
func (g *KnowledgeGraph) AddNode(node *GraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.nodes[node.ID]; ok {
		if old.Label != node.Label {
			delete(g.byLabel[old.Label], node.ID)
		}
		if old.Name != node.Name {
			delete(g.byName[old.Name], node.ID)
		}
	}

	g.nodes[node.ID] = node

	if g.byLabel[node.Label] == nil {
		g.byLabel[node.Label] = make(map[string]*GraphNode)
	}
	g.byLabel[node.Label][node.ID] = node

	if IsSymbolLabel(node.Label) {
		if g.byName[node.Name] == nil {
			g.byName[node.Name] = make(map[string]*GraphNode)
		}
		g.byName[node.Name][node.ID] = node
	}
}

// GetNode returns the node with the given ID, or nil if it does not exist.
func (g *KnowledgeGraph) GetNode(nodeID string) *GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID]
}

// GetRelationship returns the relationship with the given ID, or nil.
func (g *KnowledgeGraph) GetRelationship(relID string) *GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.relationships[relID]
}

// RemoveNode removes a node and cascade-deletes all relationships that reference it.
// Returns true if the node existed and was removed, false otherwise.
func (g *KnowledgeGraph) RemoveNode(nodeID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeID]
	if !ok {
		return false
	}

	delete(g.nodes, nodeID)
	delete(g.byLabel[node.Label], nodeID)
	delete(g.byName[node.Name], nodeID)

	g.cascadeRelationshipsForNode(nodeID)
	return true
}

// RemoveNodesByFile removes every node whose FilePath matches and cascade-deletes
// relationships. Returns the number of nodes removed.
func (g *KnowledgeGraph) RemoveNodesByFile(filePath string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	idsToRemove := make([]string, 0)
	for id, node := range g.nodes {
		if node.FilePath == filePath {
			idsToRemove = append(idsToRemove, id)
		}
	}

	for _, id := range idsToRemove {
		node := g.nodes[id]
		delete(g.nodes, id)
		delete(g.byLabel[node.Label], id)
		delete(g.byName[node.Name], id)
	}
	for _, id := range idsToRemove {
		g.cascadeRelationshipsForNode(id)
	}

	return len(idsToRemove)
}

// AddRelationship adds a relationship to the graph, replacing any existing
// relationship with the same ID.
func (g *KnowledgeGraph) AddRelationship(rel *GraphRelationship) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.relationships[rel.ID]; ok {
		delete(g.byRelType[old.Type], rel.ID)
		delete(g.outgoing[old.Source], rel.ID)
		delete(g.incoming[old.Target], rel.ID)
	}

	g.relationships[rel.ID] = rel

	if g.byRelType[rel.Type] == nil {
		g.byRelType[rel.Type] = make(map[string]*GraphRelationship)
	}
	g.byRelType[rel.Type][rel.ID] = rel

	if g.outgoing[rel.Source] == nil {
		g.outgoing[rel.Source] = make(map[string]*GraphRelationship)
	}
	g.outgoing[rel.Source][rel.ID] = rel

	if g.incoming[rel.Target] == nil {
		g.incoming[rel.Target] = make(map[string]*GraphRelationship)
	}
	g.incoming[rel.Target][rel.ID] = rel
}

// GetNodesByLabel returns all nodes with the given label, sorted by ID.
func (g *KnowledgeGraph) GetNodesByLabel(label NodeLabel) []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes, ok := g.byLabel[label]
	if !ok {
		return nil
	}

	result := make([]*GraphNode, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, node)
	}
	sortNodes(result)
	return result
}

// GetSymbolsByName returns all symbol nodes with the given bare name, sorted by ID.
func (g *KnowledgeGraph) GetSymbolsByName(name string) []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes, ok := g.byName[name]
	if !ok {
		return nil
	}

	result := make([]*GraphNode, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, node)
	}
	sortNodes(result)
	return result
}

// GetRelationshipsByType returns all relationships with the given type, sorted by ID.
func (g *KnowledgeGraph) GetRelationshipsByType(relType RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rels, ok := g.byRelType[relType]
	if !ok {
		return nil
	}

	result := make([]*GraphRelationship, 0, len(rels))
	for _, rel := range rels {
		result = append(result, rel)
	}
	sortRels(result)
	return result
}

// GetOutgoing returns relationships originating from the given node ID.
// If relType is provided, only relationships of that type are returned.
func (g *KnowledgeGraph) GetOutgoing(nodeID string, relType ...RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterAdjacent(g.outgoing[nodeID], relType)
}

// GetIncoming returns relationships targeting the given node ID.
// If relType is provided, only relationships of that type are returned.
func (g *KnowledgeGraph) GetIncoming(nodeID string, relType ...RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterAdjacent(g.incoming[nodeID], relType)
}

// HasIncoming returns true if the node has any incoming relationship of the given type.
func (g *KnowledgeGraph) HasIncoming(nodeID string, relType RelType) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, rel := range g.incoming[nodeID] {
		if rel.Type == relType {
			return true
		}
	}
	return false
}

// GetCallees returns nodes called by the given node, sorted by ID.
func (g *KnowledgeGraph) GetCallees(nodeID string) []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var callees []*GraphNode
	for _, rel := range g.outgoing[nodeID] {
		if rel.Type != RelCalls {
			continue
		}
		if callee, exists := g.nodes[rel.Target]; exists {
			callees = append(callees, callee)
		}
	}
	sortNodes(callees)
	return callees
}

// GetCallers returns nodes that call the given node, sorted by ID.
func (g *KnowledgeGraph) GetCallers(nodeID string) []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var callers []*GraphNode
	for _, rel := range g.incoming[nodeID] {
		if rel.Type != RelCalls {
			continue
		}
		if caller, exists := g.nodes[rel.Source]; exists {
			callers = append(callers, caller)
		}
	}
	sortNodes(callers)
	return callers
}

// Stats returns node and relationship counts grouped by label and type.
func (g *KnowledgeGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := map[string]int{
		"nodes":         len(g.nodes),
		"relationships": len(g.relationships),
	}
	for label, nodes := range g.byLabel {
		if len(nodes) > 0 {
			stats["nodes:"+string(label)] = len(nodes)
		}
	}
	for relType, rels := range g.byRelType {
		if len(rels) > 0 {
			stats["edges:"+string(relType)] = len(rels)
		}
	}
	return stats
}

// cascadeRelationshipsForNode removes all relationships where the node is
// source or target. Must be called with the write lock held.
func (g *KnowledgeGraph) cascadeRelationshipsForNode(nodeID string) {
	if outRels, ok := g.outgoing[nodeID]; ok {
		for _, rel := range outRels {
			delete(g.relationships, rel.ID)
			delete(g.byRelType[rel.Type], rel.ID)
			delete(g.incoming[rel.Target], rel.ID)
		}
		delete(g.outgoing, nodeID)
	}

	if inRels, ok := g.incoming[nodeID]; ok {
		for _, rel := range inRels {
			delete(g.relationships, rel.ID)
			delete(g.byRelType[rel.Type], rel.ID)
			delete(g.outgoing[rel.Source], rel.ID)
		}
		delete(g.incoming, nodeID)
	}
}

func filterAdjacent(rels map[string]*GraphRelationship, relType []RelType) []*GraphRelationship {
	if rels == nil {
		return nil
	}

	result := make([]*GraphRelationship, 0, len(rels))
	for _, rel := range rels {
		if len(relType) > 0 && relType[0] != "" && rel.Type != relType[0] {
			continue
		}
		result = append(result, rel)
	}
	sortRels(result)
	return result
}

func sortNodes(nodes []*GraphNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

func sortRels(rels []*GraphRelationship) {
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
}
