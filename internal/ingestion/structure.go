package ingestion

import (
	"path"
	"strings"

	"github.com/spark-cjbot/axon/internal/graph"
)

// ProcessStructure creates Folder and File nodes with CONTAINS edges for
// every walked entry. Paths are stored repo-relative with forward slashes.
// This is the only phase that introduces Folder nodes.
func ProcessStructure(entries []FileEntry, g *graph.KnowledgeGraph) {
	for _, entry := range entries {
		fileNode := &graph.GraphNode{
			ID:       graph.GenerateID(graph.NodeFile, entry.RelPath, ""),
			Label:    graph.NodeFile,
			Name:     path.Base(entry.RelPath),
			FilePath: entry.RelPath,
			Language: entry.Language,
			ByteSize: len(entry.Content),
			Hash:     entry.SHA256,
			Content:  string(entry.Content),
		}
		g.AddNode(fileNode)

		dir := path.Dir(entry.RelPath)
		if dir == "." {
			continue
		}

		// Folder chain from the root down, each level containing the next.
		parts := strings.Split(dir, "/")
		for i := range parts {
			folderPath := strings.Join(parts[:i+1], "/")
			folderNode := &graph.GraphNode{
				ID:       graph.GenerateID(graph.NodeFolder, folderPath, ""),
				Label:    graph.NodeFolder,
				Name:     parts[i],
				FilePath: folderPath,
			}
			g.AddNode(folderNode)

			if i > 0 {
				parentID := graph.GenerateID(graph.NodeFolder, strings.Join(parts[:i], "/"), "")
				g.AddRelationship(&graph.GraphRelationship{
					ID:     graph.EdgeID(graph.RelContains, parentID, folderNode.ID, ""),
					Type:   graph.RelContains,
					Source: parentID,
					Target: folderNode.ID,
				})
			}
		}

		lastFolderID := graph.GenerateID(graph.NodeFolder, dir, "")
		g.AddRelationship(&graph.GraphRelationship{
			ID:     graph.EdgeID(graph.RelContains, lastFolderID, fileNode.ID, ""),
			Type:   graph.RelContains,
			Source: lastFolderID,
			Target: fileNode.ID,
		})
	}
}
