package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Output file names, fixed because the viewer page loads them by name.
const (
	NodesFile      = "nodes.json"
	EdgesFile      = "edges.json"
	RoomsFile      = "room_to_node.json"
	NodesEdgesFile = "nodes_edges.js"
)

// WriteFiles writes the generated graph into dir: the node and edge
// lists, the room-to-node mapping, and a combined nodes_edges.js the
// viewer page includes directly.
func (g *Graph) WriteFiles(dir string) error {
	nodes, err := json.MarshalIndent(g.Nodes, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	edges, err := json.MarshalIndent(g.Edges, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	rooms, err := json.MarshalIndent(g.Rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	var js bytes.Buffer
	js.WriteString("// nodes_edges.js - generated\n")
	js.WriteString("const nodes = ")
	js.Write(nodes)
	js.WriteString(";\nconst edges = ")
	js.Write(edges)
	js.WriteString(";\n")

	outputs := map[string][]byte{
		NodesFile:      nodes,
		EdgesFile:      edges,
		RoomsFile:      rooms,
		NodesEdgesFile: js.Bytes(),
	}
	for name, data := range outputs {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("graph: write %s: %w", name, err)
		}
	}
	return nil
}
