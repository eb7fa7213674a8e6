/*
Package graph builds the indoor navigation graph from the viewer's SVG
floor plan. Room labels and a uniform grid of sample points become
nodes, pruned against the plan's obstacle boxes; each node connects to
its nearest neighbors, dropping edges that cross an obstacle. The
result is written as the JSON files the viewer page loads.
*/
package graph

import (
	"fmt"
	"math"
	"sort"
)

// Node is one walkable position on the floor plan. Nodes derived from
// room labels keep the label text.
type Node struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Edge is an undirected connection between two node IDs, stored with
// the smaller ID first.
type Edge [2]string

// Graph is the generated navigation graph.
type Graph struct {
	Nodes []Node            `json:"nodes"`
	Edges []Edge            `json:"edges"`
	Rooms map[string]string `json:"rooms"` // room label to nearest node ID
}

// Options tune graph generation. The zero value selects the defaults
// the floor plan was calibrated with.
type Options struct {
	Spacing        float64 // grid spacing; lower means more nodes
	Neighbors      int     // connections attempted per node
	MinNodeDist    float64 // dedupe radius
	ObstacleBuffer float64 // obstacles grow by this much
	Margin         float64 // grid inset from the plan edges
}

// Default generation parameters.
const (
	DefaultSpacing        = 16.0
	DefaultNeighbors      = 6
	DefaultMinNodeDist    = 6.0
	DefaultObstacleBuffer = 3.0
	DefaultMargin         = 4.0
)

func (o Options) withDefaults() Options {
	if o.Spacing <= 0 {
		o.Spacing = DefaultSpacing
	}
	if o.Neighbors <= 0 {
		o.Neighbors = DefaultNeighbors
	}
	if o.MinNodeDist <= 0 {
		o.MinNodeDist = DefaultMinNodeDist
	}
	if o.ObstacleBuffer <= 0 {
		o.ObstacleBuffer = DefaultObstacleBuffer
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// Build generates the navigation graph for a parsed floor plan.
func Build(plan *Plan, opts Options) (*Graph, error) {
	if plan.Width <= 0 || plan.Height <= 0 {
		return nil, fmt.Errorf("graph: invalid plan size %gx%g", plan.Width, plan.Height)
	}
	opts = opts.withDefaults()

	// Room labels become nodes first so dedupe keeps them over
	// nearby grid samples.
	type candidate struct {
		x, y  float64
		label string
	}
	var candidates []candidate
	for _, l := range plan.Labels {
		candidates = append(candidates, candidate{l.X, l.Y, l.Text})
	}
	for _, p := range sampleGrid(plan.Width, plan.Height, opts.Spacing, opts.Margin) {
		candidates = append(candidates, candidate{p.x, p.y, ""})
	}

	// Dedupe within the minimum node distance.
	var kept []candidate
	for _, c := range candidates {
		tooClose := false
		for _, k := range kept {
			if math.Hypot(k.x-c.x, k.y-c.y) < opts.MinNodeDist {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c)
		}
	}

	// Drop candidates inside a buffered obstacle.
	nodes := make([]Node, 0, len(kept))
	for _, c := range kept {
		if insideAny(plan.Obstacles, c.x, c.y, opts.ObstacleBuffer) {
			continue
		}
		nodes = append(nodes, Node{
			ID:    fmt.Sprintf("node%d", len(nodes)+1),
			X:     c.x,
			Y:     c.y,
			Label: c.label,
		})
	}

	edges := nearestNeighborEdges(nodes, opts.Neighbors)
	edges = pruneEdges(nodes, edges, plan.Obstacles, opts.ObstacleBuffer)

	rooms := make(map[string]string, len(plan.Labels))
	for _, l := range plan.Labels {
		if n := nearestNode(nodes, l.X, l.Y); n != nil {
			rooms[l.Text] = n.ID
		}
	}

	return &Graph{Nodes: nodes, Edges: edges, Rooms: rooms}, nil
}

type point struct {
	x, y float64
}

func sampleGrid(w, h, spacing, margin float64) []point {
	var pts []point
	for y := margin; y < h-margin+1e-9; y += spacing {
		for x := margin; x < w-margin+1e-9; x += spacing {
			pts = append(pts, point{x, y})
		}
	}
	return pts
}

func insideAny(obstacles []Rect, x, y, buffer float64) bool {
	for _, r := range obstacles {
		if x >= r.X-buffer && x <= r.X+r.W+buffer &&
			y >= r.Y-buffer && y <= r.Y+r.H+buffer {
			return true
		}
	}
	return false
}

func nearestNode(nodes []Node, x, y float64) *Node {
	var best *Node
	bd := math.Inf(1)
	for i := range nodes {
		d := math.Hypot(nodes[i].X-x, nodes[i].Y-y)
		if d < bd {
			bd = d
			best = &nodes[i]
		}
	}
	return best
}

// nearestNeighborEdges connects each node to its k nearest neighbors,
// returning the sorted, deduplicated undirected edge set.
func nearestNeighborEdges(nodes []Node, k int) []Edge {
	set := make(map[Edge]bool)
	type distIdx struct {
		d float64
		j int
	}
	for i := range nodes {
		dists := make([]distIdx, 0, len(nodes)-1)
		for j := range nodes {
			if i == j {
				continue
			}
			dists = append(dists, distIdx{math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y), j})
		}
		sort.Slice(dists, func(a, b int) bool { return dists[a].d < dists[b].d })
		if len(dists) > k {
			dists = dists[:k]
		}
		for _, di := range dists {
			a, b := nodes[i].ID, nodes[di.j].ID
			if b < a {
				a, b = b, a
			}
			set[Edge{a, b}] = true
		}
	}
	edges := make([]Edge, 0, len(set))
	for e := range set {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})
	return edges
}

// pruneEdges drops edges whose segment crosses a buffered obstacle.
func pruneEdges(nodes []Node, edges []Edge, obstacles []Rect, buffer float64) []Edge {
	if len(obstacles) == 0 {
		return edges
	}
	pos := make(map[string]point, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = point{n.X, n.Y}
	}
	kept := edges[:0]
	for _, e := range edges {
		a, b := pos[e[0]], pos[e[1]]
		blocked := false
		for _, r := range obstacles {
			if segmentHitsRect(a, b, r, buffer) {
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, e)
		}
	}
	return kept
}

// segmentHitsRect reports whether the segment a-b intersects the
// rectangle expanded by buffer. Endpoints are already outside every
// buffered obstacle, so checking the four rectangle sides suffices,
// but the containment check keeps the test correct for arbitrary
// segments.
func segmentHitsRect(a, b point, r Rect, buffer float64) bool {
	x1, y1 := r.X-buffer, r.Y-buffer
	x2, y2 := r.X+r.W+buffer, r.Y+r.H+buffer
	inside := func(p point) bool {
		return p.x >= x1 && p.x <= x2 && p.y >= y1 && p.y <= y2
	}
	if inside(a) || inside(b) {
		return true
	}
	corners := [4]point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
	for i := 0; i < 4; i++ {
		if segmentsCross(a, b, corners[i], corners[(i+1)%4]) {
			return true
		}
	}
	return false
}

func segmentsCross(p1, p2, p3, p4 point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return d1 == 0 && onSegment(p3, p4, p1) ||
		d2 == 0 && onSegment(p3, p4, p2) ||
		d3 == 0 && onSegment(p1, p2, p3) ||
		d4 == 0 && onSegment(p1, p2, p4)
}

func cross(a, b, c point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func onSegment(a, b, p point) bool {
	return math.Min(a.x, b.x) <= p.x && p.x <= math.Max(a.x, b.x) &&
		math.Min(a.y, b.y) <= p.y && p.y <= math.Max(a.y, b.y)
}
