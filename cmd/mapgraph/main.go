// Command mapgraph generates the indoor navigation graph from the SVG
// floor plan: nodes.json, edges.json, room_to_node.json, and the
// nodes_edges.js asset the viewer page loads.
package main

import (
	"flag"
	"log"

	"github.com/idealab/indoormap/graph"
)

func main() {
	var (
		fSVG       = flag.String("svg", "idealab_floor_plan.svg", "SVG floor plan to parse.")
		fOut       = flag.String("out", ".", "Output directory.")
		fSpacing   = flag.Float64("spacing", graph.DefaultSpacing, "Grid spacing; lower means more nodes.")
		fNeighbors = flag.Int("neighbors", graph.DefaultNeighbors, "Nearest neighbors to connect per node.")
		fMinDist   = flag.Float64("mindist", graph.DefaultMinNodeDist, "Node dedupe radius.")
		fBuffer    = flag.Float64("buffer", graph.DefaultObstacleBuffer, "Obstacle expansion buffer.")
	)
	flag.Parse()

	plan, err := graph.ParsePlanFile(*fSVG)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Parsed %s: %gx%g, %d labels, %d obstacles",
		*fSVG, plan.Width, plan.Height, len(plan.Labels), len(plan.Obstacles))

	g, err := graph.Build(plan, graph.Options{
		Spacing:        *fSpacing,
		Neighbors:      *fNeighbors,
		MinNodeDist:    *fMinDist,
		ObstacleBuffer: *fBuffer,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Built graph: %d nodes, %d edges, %d rooms", len(g.Nodes), len(g.Edges), len(g.Rooms))

	if err := g.WriteFiles(*fOut); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s, %s, %s, %s in %s",
		graph.NodesFile, graph.EdgesFile, graph.RoomsFile, graph.NodesEdgesFile, *fOut)
}
