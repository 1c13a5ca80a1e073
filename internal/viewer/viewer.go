// Package viewer writes a self-contained interactive HTML viewer: the
// annotated plan with clickable device markers, usable without any server.
package viewer

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"

	"plan-tracer/internal/report"
)

//go:embed viewer.tmpl
var viewerTmpl string

// Options tunes the marker rendering inside the viewer.
type Options struct {
	Radius    int     // base marker radius, image pixels
	MinRadius int     // floor the de-overlap shrink may reach
	Padding   float64 // extra spacing kept between circles
	Thickness int     // circle stroke width
}

// DefaultOptions returns the default viewer options.
func DefaultOptions() Options {
	return Options{Radius: 18, MinRadius: 4, Padding: 3.0, Thickness: 2}
}

type templateData struct {
	ImageURI    template.URL
	RecordsJSON template.JS
	Radius      int
	MinRadius   int
	Padding     float64
	Thickness   int
}

// Write renders the viewer to path, embedding the raster at imagePath as a
// base64 data URI so the output file is fully standalone.
func Write(path, imagePath string, records []report.Record, opts Options) error {
	uri, err := dataURI(imagePath)
	if err != nil {
		return err
	}

	recJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode viewer records: %w", err)
	}

	tmpl, err := template.New("viewer").Parse(viewerTmpl)
	if err != nil {
		return fmt.Errorf("parse viewer template: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create viewer: %w", err)
	}
	defer file.Close()

	data := templateData{
		ImageURI:    template.URL(uri),
		RecordsJSON: template.JS(recJSON),
		Radius:      opts.Radius,
		MinRadius:   opts.MinRadius,
		Padding:     opts.Padding,
		Thickness:   opts.Thickness,
	}
	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("render viewer: %w", err)
	}
	return nil
}

func dataURI(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read viewer image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
