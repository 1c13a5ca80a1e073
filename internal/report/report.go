// Package report assembles and emits the structured per-device report.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"plan-tracer/internal/associate"
	"plan-tracer/internal/entity"
	"plan-tracer/internal/grid"
	"plan-tracer/internal/legend"
	"plan-tracer/pkg/geometry"
)

// LabelInfo describes the associated label of a device.
type LabelInfo struct {
	ID       string  `json:"id"`
	Text     string  `json:"text,omitempty"`
	Distance float64 `json:"distance"`

	// OCRText is the text read off the raster near the label position when
	// label verification is enabled.
	OCRText string `json:"ocr_text,omitempty"`
}

// OtherInfo describes the associated non-label entity of a device.
type OtherInfo struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Record is the report entry for one device. Field names are stable across
// runs; optional sections are omitted rather than emitted empty.
type Record struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Layer    string           `json:"layer"`
	Category string           `json:"category,omitempty"`
	Group    string           `json:"group,omitempty"`
	CAD      geometry.Point2D `json:"pos_cad"`
	Image    geometry.Point2D `json:"pos_img"`
	Label    *LabelInfo       `json:"label,omitempty"`
	Other    *OtherInfo       `json:"other,omitempty"`
	Grid     *grid.Ref        `json:"grid,omitempty"`
}

// Document is the emitted report: run-level counts plus the device records
// in ascending id order.
type Document struct {
	DeviceCount  int           `json:"device_count"`
	LabelCount   int           `json:"label_count"`
	IgnoredCount int           `json:"ignored_count"`
	Transform    [2][3]float64 `json:"transform"`
	Devices      []Record      `json:"devices"`
}

// Build assembles the device records from the association results. The
// associations slice is already ordered by device id; records preserve that
// order. Grid and legend inputs are optional.
func Build(devices, labels []*entity.Entity, assocs []associate.Association,
	t geometry.AffineTransform, lg *legend.Mapping, g *grid.Grid) []Record {

	deviceByID := make(map[string]*entity.Entity, len(devices))
	for _, d := range devices {
		deviceByID[d.ID] = d
	}
	labelByID := make(map[string]*entity.Entity, len(labels))
	for _, l := range labels {
		labelByID[l.ID] = l
	}

	records := make([]Record, 0, len(assocs))
	for _, a := range assocs {
		d := deviceByID[a.DeviceID]
		if d == nil {
			continue
		}
		cad := d.Anchor()
		img := t.Apply(cad)

		rec := Record{
			ID:       d.ID,
			Name:     d.Name,
			Layer:    d.Layer,
			Category: d.Category,
			Group:    lg.GroupFor(d),
			CAD:      cad,
			Image:    img,
		}

		if a.Label != nil {
			info := &LabelInfo{ID: a.Label.ID, Distance: a.Label.Distance}
			if l := labelByID[a.Label.ID]; l != nil {
				info.Text = l.Text
				if info.Text == "" {
					info.Text = l.Name
				}
			}
			rec.Label = info
		}
		if a.Other != nil {
			rec.Other = &OtherInfo{ID: a.Other.ID, Distance: a.Other.Distance}
		}
		if g != nil {
			ref := g.Locate(img)
			rec.Grid = &ref
		}

		records = append(records, rec)
	}
	return records
}

// Write emits the report document as indented JSON.
func Write(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
