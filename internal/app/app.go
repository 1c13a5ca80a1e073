// Package app wires the processing pipeline: calibration, classification,
// association, rendering and reporting run as one sequential pass over an
// immutable configuration.
package app

import (
	"fmt"

	"plan-tracer/internal/associate"
	"plan-tracer/internal/calibration"
	"plan-tracer/internal/classify"
	"plan-tracer/internal/entity"
	"plan-tracer/internal/grid"
	"plan-tracer/internal/legend"
	"plan-tracer/internal/raster"
	"plan-tracer/internal/report"
	"plan-tracer/internal/viewer"
	"plan-tracer/pkg/geometry"
)

// Config is the whole run configuration. It is built once by the CLI and
// never mutated; the pipeline holds no other state across runs.
type Config struct {
	EntitiesPath string
	ImagePath    string
	CalibSpec    string

	OutImagePath  string
	OutReportPath string
	OutViewerPath string // empty disables the viewer

	// Marker radius in image pixels.
	Radius int

	// Association thresholds in CAD drawing units.
	LabelAssocMaxDist float64
	AssocMaxDist      float64

	// Classification policy.
	LabelLayerPattern string
	LabelNamePattern  string
	DevicePrefixes    []string
	CategoryFilter    []string

	// Optional side inputs.
	GridPath   string
	LegendPath string

	// LabelReader, when set, reads raster text at a label's image position
	// for the report's ocr_text field. The CLI wires the OCR engine here so
	// the pipeline itself stays free of the OCR dependency.
	LabelReader func(geometry.Point2D) string

	// Association execution tuning; results are identical either way.
	UseIndex bool
	Workers  int
}

// StageError tags a fatal error with the pipeline stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// Result collects everything a run derives.
type Result struct {
	Transform    geometry.AffineTransform
	Partition    classify.Partition
	Associations []associate.Association
	Records      []report.Record
	Warnings     []entity.Warning

	// Unassociated counts devices with no label within the threshold; an
	// expected outcome, reported for operator awareness.
	Unassociated int
}

// Process runs the computation stages over already-decoded entities:
// calibration, classification, association, record assembly. No file IO.
func Process(cfg Config, entities []*entity.Entity) (*Result, error) {
	transform, err := calibration.SolveSpec(cfg.CalibSpec)
	if err != nil {
		return nil, stageErr("calibration", err)
	}

	classifier, err := classify.New(classify.Config{
		CategoryFilter:    cfg.CategoryFilter,
		LabelLayerPattern: cfg.LabelLayerPattern,
		LabelNamePattern:  cfg.LabelNamePattern,
		DevicePrefixes:    cfg.DevicePrefixes,
	})
	if err != nil {
		return nil, stageErr("classification", err)
	}

	var gr *grid.Grid
	if cfg.GridPath != "" {
		if gr, err = grid.LoadFile(cfg.GridPath); err != nil {
			return nil, stageErr("grid", err)
		}
	}
	var lg *legend.Mapping
	if cfg.LegendPath != "" {
		if lg, err = legend.LoadFile(cfg.LegendPath); err != nil {
			return nil, stageErr("legend", err)
		}
	}

	part := classifier.Partition(entities)

	engine := associate.New(part.Labels, part.Others,
		cfg.LabelAssocMaxDist, cfg.AssocMaxDist,
		associate.Options{UseIndex: cfg.UseIndex, Workers: cfg.Workers})
	assocs := engine.Associate(part.Devices)

	records := report.Build(part.Devices, part.Labels, assocs, transform, lg, gr)

	res := &Result{
		Transform:    transform,
		Partition:    part,
		Associations: assocs,
		Records:      records,
	}
	for _, a := range assocs {
		if a.Label == nil {
			res.Unassociated++
		}
	}

	if cfg.LabelReader != nil {
		for i := range res.Records {
			rec := &res.Records[i]
			if rec.Label == nil {
				continue
			}
			if l := findLabel(part.Labels, rec.Label.ID); l != nil {
				rec.Label.OCRText = cfg.LabelReader(transform.Apply(l.Anchor()))
			}
		}
	}

	return res, nil
}

func findLabel(labels []*entity.Entity, id string) *entity.Entity {
	for _, l := range labels {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Run executes the full pipeline including IO: decode entities, process,
// annotate the raster, and write the report and optional viewer.
func Run(cfg Config) (*Result, error) {
	entities, warnings, err := entity.DecodeFile(cfg.EntitiesPath)
	if err != nil {
		return nil, stageErr("entities", err)
	}

	res, err := Process(cfg, entities)
	if err != nil {
		return nil, err
	}
	res.Warnings = warnings

	base, err := raster.Load(cfg.ImagePath)
	if err != nil {
		return nil, stageErr("render", err)
	}

	markers, links := buildOverlay(res)
	opts := raster.DefaultAnnotateOptions()
	if cfg.Radius > 0 {
		opts.Radius = cfg.Radius
	}
	annotated := raster.Annotate(base, markers, links, opts)
	if err := raster.Save(cfg.OutImagePath, annotated); err != nil {
		return nil, stageErr("render", err)
	}

	doc := report.Document{
		DeviceCount:  len(res.Partition.Devices),
		LabelCount:   len(res.Partition.Labels),
		IgnoredCount: res.Partition.IgnoredCount,
		Transform:    res.Transform.ToMatrix(),
		Devices:      res.Records,
	}
	if err := report.Write(cfg.OutReportPath, doc); err != nil {
		return nil, stageErr("report", err)
	}

	if cfg.OutViewerPath != "" {
		vopts := viewer.DefaultOptions()
		if cfg.Radius > 0 {
			vopts.Radius = cfg.Radius
		}
		if err := viewer.Write(cfg.OutViewerPath, cfg.ImagePath, res.Records, vopts); err != nil {
			return nil, stageErr("viewer", err)
		}
	}

	return res, nil
}

// buildOverlay derives markers and link lines in image space from the run
// result. Links are colored after their device for visual pairing.
func buildOverlay(res *Result) ([]raster.Marker, []raster.Link) {
	deviceByID := make(map[string]*entity.Entity, len(res.Partition.Devices))
	for _, d := range res.Partition.Devices {
		deviceByID[d.ID] = d
	}
	labelByID := make(map[string]*entity.Entity, len(res.Partition.Labels))
	for _, l := range res.Partition.Labels {
		labelByID[l.ID] = l
	}

	var markers []raster.Marker
	var links []raster.Link
	for _, a := range res.Associations {
		d := deviceByID[a.DeviceID]
		if d == nil {
			continue
		}
		pos := res.Transform.Apply(d.Anchor())
		markers = append(markers, raster.Marker{Center: pos, Color: d.Color()})

		if a.Label != nil {
			if l := labelByID[a.Label.ID]; l != nil {
				links = append(links, raster.Link{
					From:  pos,
					To:    res.Transform.Apply(l.Anchor()),
					Color: d.Color(),
				})
			}
		}
	}
	return markers, links
}

// Describe returns a one-line run summary for CLI output.
func Describe(res *Result) string {
	return fmt.Sprintf("%d devices, %d labels, %d ignored, %d unassociated, %d skipped",
		len(res.Partition.Devices), len(res.Partition.Labels),
		res.Partition.IgnoredCount, res.Unassociated, len(res.Warnings))
}
