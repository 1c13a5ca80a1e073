// Package entity defines the floor-plan entity records consumed by the
// pipeline and decodes them from the extractor's JSON document.
package entity

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"sort"

	"plan-tracer/pkg/colorutil"
	"plan-tracer/pkg/geometry"
)

// Entity is one record produced by the CAD extraction step. Geometry is in
// CAD drawing units. Entities are read-only to the pipeline; derived data
// (classification, associations) lives elsewhere.
type Entity struct {
	ID       string
	Name     string
	Layer    string
	Category string
	Text     string

	// Geometry holds one or more vertices in CAD space.
	Geometry []geometry.Point2D

	// RGB is the explicit entity color, if the extractor resolved one.
	// ACI is the AutoCAD color index fallback (0 when absent).
	RGB *[3]int
	ACI int
}

// Anchor returns the entity's representative CAD-space point: the single
// vertex for point entities, the centroid for multi-vertex geometry.
func (e *Entity) Anchor() geometry.Point2D {
	if len(e.Geometry) == 1 {
		return e.Geometry[0]
	}
	return geometry.Centroid(e.Geometry)
}

// Color resolves the marker color for the entity.
func (e *Entity) Color() color.RGBA {
	if e.RGB != nil {
		return colorutil.FromRGB(*e.RGB)
	}
	if e.ACI > 0 {
		return colorutil.FromACI(e.ACI)
	}
	return colorutil.FallbackGrey
}

// Warning records a malformed entity that was skipped during decoding.
type Warning struct {
	ID     string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("entity %s skipped: %s", w.ID, w.Reason)
}

// record mirrors the extractor's JSON shape for one entity. Either "pos" (a
// single [x,y]) or "points" (a vertex list) carries the geometry.
type record struct {
	Name     string       `json:"name"`
	Layer    string       `json:"layer"`
	Category string       `json:"category"`
	Text     string       `json:"txt"`
	Pos      []float64    `json:"pos"`
	Points   [][2]float64 `json:"points"`
	RGB      *[3]int      `json:"rgb"`
	ACI      int          `json:"aci"`
}

// Decode parses the extractor document: a JSON object keyed by entity id.
// Malformed entities are skipped with a warning; a malformed document is an
// error. Entities are returned sorted by id so downstream work is
// deterministic.
func Decode(data []byte) ([]*Entity, []Warning, error) {
	var raw map[string]record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode entities: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var entities []*Entity
	var warnings []Warning
	for _, id := range ids {
		rec := raw[id]
		ent, reason := fromRecord(id, rec)
		if ent == nil {
			warnings = append(warnings, Warning{ID: id, Reason: reason})
			continue
		}
		entities = append(entities, ent)
	}
	return entities, warnings, nil
}

// DecodeFile reads and decodes an extractor document from disk.
func DecodeFile(path string) ([]*Entity, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read entities: %w", err)
	}
	return Decode(data)
}

func fromRecord(id string, rec record) (*Entity, string) {
	if id == "" {
		return nil, "empty id"
	}

	var pts []geometry.Point2D
	switch {
	case len(rec.Points) > 0:
		pts = make([]geometry.Point2D, len(rec.Points))
		for i, p := range rec.Points {
			pts[i] = geometry.Point2D{X: p[0], Y: p[1]}
		}
	case len(rec.Pos) >= 2:
		pts = []geometry.Point2D{{X: rec.Pos[0], Y: rec.Pos[1]}}
	default:
		return nil, "missing geometry"
	}

	if rec.Name == "" && rec.Layer == "" {
		return nil, "missing name and layer"
	}

	return &Entity{
		ID:       id,
		Name:     rec.Name,
		Layer:    rec.Layer,
		Category: rec.Category,
		Text:     CleanText(rec.Text),
		Geometry: pts,
		RGB:      rec.RGB,
		ACI:      rec.ACI,
	}, ""
}
