// Command plantracer overlays extracted floor-plan entities onto a scanned
// plan image, links devices to their nearest labels, and emits an annotated
// raster plus a structured report.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"plan-tracer/internal/app"
	"plan-tracer/internal/ocr"
	"plan-tracer/internal/version"
)

func main() {
	entities := flag.String("entities", "", "Path to extracted entities JSON")
	image := flag.String("image", "", "Path to reference plan image")
	calib := flag.String("calib", "", "Calibration pairs 'cadX,cadY:imgX,imgY;...' (min 3)")

	outImage := flag.String("out-image", "annotated.png", "Path for the annotated raster")
	outReport := flag.String("out-report", "report.json", "Path for the JSON report")
	outViewer := flag.String("out-viewer", "", "Path for the HTML viewer (optional)")

	radius := flag.Int("radius", 18, "Marker radius in image pixels")
	assocMax := flag.Float64("assoc_max_dist", 20, "Device-to-other threshold, CAD units")
	labelAssocMax := flag.Float64("label_assoc_max_dist", 60, "Device-to-label threshold, CAD units")
	labelLayerRe := flag.String("label_layer_regex", "", "Label layer pattern")
	labelNameRe := flag.String("label_name_regex", "", "Label name pattern")
	devicePrefixes := flag.String("device_prefixes", "", "Comma-separated device name prefixes")
	categoryFilter := flag.String("category_filter", "", "Comma-separated allowed categories (empty: all)")

	gridPath := flag.String("grid", "", "Grid axes JSON (optional)")
	legendPath := flag.String("legend", "", "Legend mapping file (optional)")

	verifyLabels := flag.Bool("verify-labels", false, "OCR label text off the raster into the report")
	ocrBox := flag.Int("ocr-box", 40, "Half size in pixels of the OCR crop around each label")
	workers := flag.Int("workers", 1, "Association worker count")
	useIndex := flag.Bool("index", false, "Use the spatial grid index for association")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("plantracer %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *entities == "" || *image == "" || *calib == "" {
		fmt.Println("Usage: plantracer -entities <json> -image <raster> -calib <pairs> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := app.Config{
		EntitiesPath:      *entities,
		ImagePath:         *image,
		CalibSpec:         *calib,
		OutImagePath:      *outImage,
		OutReportPath:     *outReport,
		OutViewerPath:     *outViewer,
		Radius:            *radius,
		AssocMaxDist:      *assocMax,
		LabelAssocMaxDist: *labelAssocMax,
		LabelLayerPattern: *labelLayerRe,
		LabelNamePattern:  *labelNameRe,
		DevicePrefixes:    splitList(*devicePrefixes),
		CategoryFilter:    splitList(*categoryFilter),
		GridPath:          *gridPath,
		LegendPath:        *legendPath,
		UseIndex:          *useIndex,
		Workers:           *workers,
	}

	if *verifyLabels {
		verifier, err := ocr.NewVerifier(*image, *ocrBox)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ocr: %v\n", err)
			os.Exit(1)
		}
		defer verifier.Close()
		cfg.LabelReader = verifier.ReadAt
	}

	res, err := app.Run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Wrote %s and %s (%s)\n", *outImage, *outReport, app.Describe(res))
	if *outViewer != "" {
		fmt.Printf("Wrote viewer %s\n", *outViewer)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
