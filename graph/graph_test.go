package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testPlan() *Plan {
	return &Plan{
		Width:  200,
		Height: 100,
		Labels: []Label{
			{Text: "Lab A", X: 30, Y: 30},
			{Text: "Lab B", X: 170, Y: 70},
		},
		Obstacles: []Rect{
			{X: 90, Y: 0, W: 20, H: 80},
		},
	}
}

func TestBuild(t *testing.T) {
	g, err := Build(testPlan(), Options{Spacing: 20, Neighbors: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) == 0 {
		t.Fatal("no nodes generated")
	}

	labels := 0
	for _, n := range g.Nodes {
		if n.Label != "" {
			labels++
		}
		if insideAny([]Rect{{X: 90, Y: 0, W: 20, H: 80}}, n.X, n.Y, DefaultObstacleBuffer) {
			t.Errorf("node %s at (%g,%g) is inside an obstacle", n.ID, n.X, n.Y)
		}
	}
	if labels != 2 {
		t.Errorf("expected both room labels to survive, got %d", labels)
	}

	if len(g.Rooms) != 2 {
		t.Errorf("rooms %v", g.Rooms)
	}
	for room, id := range g.Rooms {
		found := false
		for _, n := range g.Nodes {
			if n.ID == id {
				found = true
			}
		}
		if !found {
			t.Errorf("room %q maps to unknown node %q", room, id)
		}
	}
}

func TestEdgesAvoidObstacles(t *testing.T) {
	plan := testPlan()
	g, err := Build(plan, Options{Spacing: 20, Neighbors: 4})
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]point)
	for _, n := range g.Nodes {
		pos[n.ID] = point{n.X, n.Y}
	}
	if len(g.Edges) == 0 {
		t.Fatal("no edges generated")
	}
	for _, e := range g.Edges {
		if e[0] >= e[1] {
			t.Errorf("edge %v is not stored smaller ID first", e)
		}
		a, b := pos[e[0]], pos[e[1]]
		for _, r := range plan.Obstacles {
			if segmentHitsRect(a, b, r, DefaultObstacleBuffer) {
				t.Errorf("edge %v crosses obstacle %+v", e, r)
			}
		}
	}
}

func TestBuildRejectsUnsizedPlan(t *testing.T) {
	if _, err := Build(&Plan{}, Options{}); err == nil {
		t.Error("expected an error for a plan without dimensions")
	}
}

func TestDedupePrefersLabels(t *testing.T) {
	plan := &Plan{
		Width:  50,
		Height: 50,
		// Label sits within the dedupe radius of the (4,4) grid origin.
		Labels: []Label{{Text: "Desk", X: 5, Y: 5}},
	}
	g, err := Build(plan, Options{Spacing: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range g.Nodes {
		if n.X == 4 && n.Y == 4 {
			t.Error("grid point should have been deduped against the nearby label")
		}
	}
	if g.Rooms["Desk"] == "" {
		t.Error("label node missing")
	}
}

func TestSegmentHitsRect(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 10, H: 10}
	var (
		tests = [][4]float64{
			{0, 15, 30, 15}, // straight through
			{0, 0, 30, 30},  // diagonal through
			{0, 0, 5, 0},    // far away
			{0, 25, 30, 40}, // passes below (outside buffer 0)
			{15, 0, 15, 5},  // stops short
		}
		expect = []bool{true, true, false, false, false}
	)
	for i, tc := range tests {
		got := segmentHitsRect(point{tc[0], tc[1]}, point{tc[2], tc[3]}, r, 0)
		if got != expect[i] {
			t.Errorf("case %d: expected %v but got %v", i, expect[i], got)
		}
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := Build(testPlan(), Options{Spacing: 20})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.WriteFiles(dir); err != nil {
		t.Fatal(err)
	}

	var nodes []Node
	data, err := os.ReadFile(filepath.Join(dir, NodesFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes) != len(g.Nodes) {
		t.Errorf("nodes.json has %d nodes, expected %d", len(nodes), len(g.Nodes))
	}

	js, err := os.ReadFile(filepath.Join(dir, NodesEdgesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(js), "const nodes = ") || !strings.Contains(string(js), "const edges = ") {
		t.Error("nodes_edges.js missing declarations")
	}
}
