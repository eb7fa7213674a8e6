package graph

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Plan is the parsed floor plan: its dimensions, the room labels, and
// the obstacle boxes walkable space must avoid.
type Plan struct {
	Width     float64
	Height    float64
	Labels    []Label
	Obstacles []Rect
}

// Label is a text element from the plan, typically a room name.
type Label struct {
	Text string
	X, Y float64
}

// Rect is an axis-aligned obstacle box.
type Rect struct {
	X, Y, W, H float64
}

var numRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ParsePlanFile parses the SVG floor plan at name.
func ParsePlanFile(name string) (*Plan, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	defer f.Close()
	plan, err := ParsePlan(f)
	if err != nil {
		return nil, fmt.Errorf("graph: parse %s: %w", name, err)
	}
	return plan, nil
}

// ParsePlan parses an SVG floor plan. It reads the drawing size from
// the viewBox (falling back to width/height attributes), collects
// positioned text elements as room labels, and derives obstacle boxes
// from rect, circle, ellipse, polygon, polyline, and path elements.
// Shapes that are neither filled nor visibly stroked are treated as
// decoration, and boxes that frame the drawing or cover most of it
// are dropped.
func ParsePlan(r io.Reader) (*Plan, error) {
	var (
		plan     Plan
		rawBoxes []Rect
		sized    bool
		dec      = xml.NewDecoder(r)
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "svg":
			if !sized {
				plan.Width, plan.Height = svgSize(start)
				sized = true
			}
		case "text":
			label, ok, err := parseText(dec, start)
			if err != nil {
				return nil, err
			}
			if ok {
				plan.Labels = append(plan.Labels, label)
			}
		case "rect":
			x := attrFloat(start, "x")
			y := attrFloat(start, "y")
			w := attrFloat(start, "width")
			h := attrFloat(start, "height")
			if w > 0 && h > 0 {
				rawBoxes = append(rawBoxes, Rect{x, y, w, h})
			}
		case "circle":
			cx, cy, cr := attrFloat(start, "cx"), attrFloat(start, "cy"), attrFloat(start, "r")
			if cr > 0 {
				rawBoxes = append(rawBoxes, Rect{cx - cr, cy - cr, 2 * cr, 2 * cr})
			}
		case "ellipse":
			cx, cy := attrFloat(start, "cx"), attrFloat(start, "cy")
			rx, ry := attrFloat(start, "rx"), attrFloat(start, "ry")
			if rx > 0 && ry > 0 {
				rawBoxes = append(rawBoxes, Rect{cx - rx, cy - ry, 2 * rx, 2 * ry})
			}
		case "polygon", "polyline":
			if !visibleShape(start) {
				continue
			}
			if box, ok := bboxOfNumbers(attr(start, "points")); ok {
				rawBoxes = append(rawBoxes, box)
			}
		case "path":
			if !visibleShape(start) {
				continue
			}
			// The path data is approximated by the bounding box
			// of its coordinate pairs.
			if box, ok := bboxOfNumbers(attr(start, "d")); ok {
				rawBoxes = append(rawBoxes, box)
			}
		}
	}
	if plan.Width <= 0 || plan.Height <= 0 {
		return nil, fmt.Errorf("missing or invalid svg dimensions")
	}
	plan.Obstacles = filterObstacles(rawBoxes, plan.Width, plan.Height)
	return &plan, nil
}

func svgSize(start xml.StartElement) (w, h float64) {
	if vb := attr(start, "viewBox"); vb != "" {
		nums := numRe.FindAllString(strings.ReplaceAll(vb, ",", " "), -1)
		if len(nums) >= 4 {
			w, _ = strconv.ParseFloat(nums[2], 64)
			h, _ = strconv.ParseFloat(nums[3], 64)
			return w, h
		}
	}
	w = leadingFloat(attr(start, "width"))
	h = leadingFloat(attr(start, "height"))
	return w, h
}

// parseText collects a text element's position and its character data,
// including nested tspans.
func parseText(dec *xml.Decoder, start xml.StartElement) (Label, bool, error) {
	x := attr(start, "x")
	if x == "" {
		x = attr(start, "dx")
	}
	y := attr(start, "y")
	if y == "" {
		y = attr(start, "dy")
	}

	var text strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return Label{}, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			text.Write(t)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" || x == "" || y == "" {
		return Label{}, false, nil
	}
	// Coordinate attributes may hold a list; the first value is the
	// anchor position.
	xf, err1 := strconv.ParseFloat(strings.Fields(x)[0], 64)
	yf, err2 := strconv.ParseFloat(strings.Fields(y)[0], 64)
	if err1 != nil || err2 != nil {
		return Label{}, false, nil
	}
	return Label{Text: content, X: xf, Y: yf}, true, nil
}

// visibleShape reports whether a polygon, polyline, or path is filled
// or stroked enough to count as an obstacle rather than decoration.
func visibleShape(start xml.StartElement) bool {
	fill := strings.ToLower(strings.TrimSpace(attr(start, "fill")))
	strokeWidth := leadingFloat(attr(start, "stroke-width"))
	if fill == "" || fill == "none" || fill == "transparent" {
		return strokeWidth > 0.5
	}
	return true
}

// bboxOfNumbers pairs the numbers found in attr text as coordinates
// and returns their bounding box.
func bboxOfNumbers(s string) (Rect, bool) {
	nums := numRe.FindAllString(s, -1)
	if len(nums) < 2 {
		return Rect{}, false
	}
	if len(nums)%2 == 1 {
		nums = nums[:len(nums)-1]
	}
	var minX, minY, maxX, maxY float64
	for i := 0; i < len(nums); i += 2 {
		x, _ := strconv.ParseFloat(nums[i], 64)
		y, _ := strconv.ParseFloat(nums[i+1], 64)
		if i == 0 {
			minX, maxX = x, x
			minY, maxY = y, y
			continue
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX <= minX || maxY <= minY {
		return Rect{}, false
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}, true
}

// filterObstacles drops the outer frame, boxes covering most of the
// drawing, and tiny noise. If the filter removes everything, a looser
// pass keeps the non-frame boxes so sparse plans still have walls.
func filterObstacles(boxes []Rect, w, h float64) []Rect {
	svgArea := w * h
	if svgArea < 1 {
		svgArea = 1
	}
	frameMargin := min(w, h) * 0.01
	if frameMargin < 2 {
		frameMargin = 2
	}

	var filtered []Rect
	for _, r := range boxes {
		area := r.W * r.H
		touchesFrame := r.X <= frameMargin && r.Y <= frameMargin &&
			r.X+r.W >= w-frameMargin && r.Y+r.H >= h-frameMargin
		if touchesFrame {
			continue
		}
		if area/svgArea > 0.30 {
			continue
		}
		if area < 9.0 {
			continue
		}
		filtered = append(filtered, r)
	}
	if len(filtered) == 0 && len(boxes) > 0 {
		for _, r := range boxes {
			area := r.W * r.H
			if area/svgArea < 0.80 && area > 9.0 {
				filtered = append(filtered, r)
			}
		}
	}
	return filtered
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrFloat(start xml.StartElement, name string) float64 {
	return leadingFloat(attr(start, name))
}

// leadingFloat parses the first number in s, tolerating unit suffixes
// like "900px".
func leadingFloat(s string) float64 {
	m := numRe.FindString(s)
	if m == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(m, 64)
	return f
}
