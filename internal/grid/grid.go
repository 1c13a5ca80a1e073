// Package grid assigns plan grid references: the drawing's labeled column and
// row axes bracket each image position into a cell, plus a human wording of
// where inside the cell the position falls.
package grid

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"plan-tracer/pkg/geometry"
)

// In-cell wording bands, as fractions of the cell.
const (
	centerRadius = 0.22
	cornerBox    = 0.28
	edgeBand     = 0.05
)

// Entry is one labeled axis line at a pixel coordinate.
type Entry struct {
	Label string
	Coord float64
}

// Axis is an ordered set of labeled lines along one direction.
type Axis []Entry

// Grid holds the column (x) and row (y) axes in image space.
type Grid struct {
	Cols Axis
	Rows Axis
}

// Ref is the grid reference for one position: the bracketing column and row
// labels, a compact cell id, and the in-cell position wording.
type Ref struct {
	Cols     [2]string `json:"cols"`
	Rows     [2]string `json:"rows"`
	Cell     string    `json:"cell"`
	Position string    `json:"position"`
}

// New builds a grid from label→coordinate maps, sorting each axis by
// coordinate. Axes with fewer than 2 entries are rejected: a single line
// brackets nothing.
func New(cols, rows map[string]float64) (*Grid, error) {
	ca, err := buildAxis("cols", cols)
	if err != nil {
		return nil, err
	}
	ra, err := buildAxis("rows", rows)
	if err != nil {
		return nil, err
	}
	return &Grid{Cols: ca, Rows: ra}, nil
}

// LoadFile reads a grid definition JSON file:
//
//	{"cols": {"F": 460, "G": 884}, "rows": {"45": 234, "44": 543}}
func LoadFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	var doc struct {
		Cols map[string]float64 `json:"cols"`
		Rows map[string]float64 `json:"rows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}
	return New(doc.Cols, doc.Rows)
}

func buildAxis(name string, m map[string]float64) (Axis, error) {
	if len(m) < 2 {
		return nil, fmt.Errorf("grid %s axis needs at least 2 entries, got %d", name, len(m))
	}
	axis := make(Axis, 0, len(m))
	for label, coord := range m {
		axis = append(axis, Entry{Label: label, Coord: coord})
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Coord < axis[j].Coord })
	return axis, nil
}

// Locate returns the grid reference for an image-space position. Positions
// outside the axes clamp to the first or last cell.
func (g *Grid) Locate(p geometry.Point2D) Ref {
	loCol, hiCol, x0, x1 := bracket(p.X, g.Cols)
	upRow, loRow, y0, y1 := bracket(p.Y, g.Rows)

	nx := normalize(p.X, x0, x1)
	ny := normalize(p.Y, y0, y1)

	return Ref{
		Cols:     [2]string{loCol, hiCol},
		Rows:     [2]string{upRow, loRow},
		Cell:     fmt.Sprintf("[%s,%s],[%s-%s]", loCol, hiCol, upRow, loRow),
		Position: describe(nx, ny),
	}
}

// bracket finds the neighboring labels bounding the value, clamping to the
// first or last pair outside the range.
func bracket(value float64, axis Axis) (lo, hi string, loCoord, hiCoord float64) {
	n := len(axis)
	if value <= axis[0].Coord {
		return axis[0].Label, axis[1].Label, axis[0].Coord, axis[1].Coord
	}
	if value >= axis[n-1].Coord {
		return axis[n-2].Label, axis[n-1].Label, axis[n-2].Coord, axis[n-1].Coord
	}
	for i := 0; i < n-1; i++ {
		if axis[i].Coord <= value && value <= axis[i+1].Coord {
			return axis[i].Label, axis[i+1].Label, axis[i].Coord, axis[i+1].Coord
		}
	}
	return axis[n-2].Label, axis[n-1].Label, axis[n-2].Coord, axis[n-1].Coord
}

func normalize(value, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	n := (value - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// describe words the in-cell position. Priority: center, corners, edge
// bands, quadrants.
func describe(nx, ny float64) string {
	if abs(nx-0.5) <= centerRadius && abs(ny-0.5) <= centerRadius {
		return "center"
	}

	if nx <= cornerBox && ny <= cornerBox {
		return "upper left corner"
	}
	if nx >= 1-cornerBox && ny <= cornerBox {
		return "upper right corner"
	}
	if nx <= cornerBox && ny >= 1-cornerBox {
		return "lower left corner"
	}
	if nx >= 1-cornerBox && ny >= 1-cornerBox {
		return "lower right corner"
	}

	if nx <= edgeBand {
		return "left side"
	}
	if nx >= 1-edgeBand {
		return "right side"
	}
	if ny <= edgeBand {
		return "upper side"
	}
	if ny >= 1-edgeBand {
		return "lower side"
	}

	switch {
	case ny < 0.5 && nx < 0.5:
		return "upper left area"
	case ny < 0.5:
		return "upper right area"
	case nx < 0.5:
		return "lower left area"
	default:
		return "lower right area"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
