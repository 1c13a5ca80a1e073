// Package ocr reads label text off the reference raster, so the report can
// carry what the printed plan actually says next to what the CAD data claims.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"plan-tracer/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Engine wraps a Tesseract client configured for plan lettering.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates the OCR engine. Plans in this domain mix German wording
// with alphanumeric circuit ids, so both language packs are requested.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("deu", "eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Circuit ids like 12F04 are not dictionary words; keep Tesseract from
	// correcting them away.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ReadRegion performs OCR on a region of an image. Regions reaching outside
// the image are clipped; a fully clipped region is an error.
func (e *Engine) ReadRegion(img gocv.Mat, bounds geometry.RectInt) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}

	x, y, w, h := bounds.X, bounds.Y, bounds.Width, bounds.Height
	imgH, imgW := img.Rows(), img.Cols()
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > imgW {
		w = imgW - x
	}
	if y+h > imgH {
		h = imgH - y
	}
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("region outside image")
	}

	region := img.Region(image.Rect(x, y, x+w, y+h))
	defer region.Close()

	processed := preprocess(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// preprocess upsamples small crops and binarizes: plan text is thin dark
// strokes on a light scan, which Otsu separates cleanly.
func preprocess(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	var scaled gocv.Mat
	minDim := h
	if w < minDim {
		minDim = w
	}
	if minDim < 120 && minDim > 0 {
		scale := 120.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()

	return result
}

// Verifier reads text around label positions on one loaded raster.
type Verifier struct {
	engine *Engine
	img    gocv.Mat
	box    int
}

// NewVerifier loads the raster and prepares an engine. boxRadius is the half
// size in pixels of the square crop read around each position.
func NewVerifier(imagePath string, boxRadius int) (*Verifier, error) {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to read image %s", imagePath)
	}
	engine, err := NewEngine()
	if err != nil {
		img.Close()
		return nil, err
	}
	if boxRadius <= 0 {
		boxRadius = 40
	}
	return &Verifier{engine: engine, img: img, box: boxRadius}, nil
}

// Close releases the raster and the OCR engine.
func (v *Verifier) Close() {
	v.img.Close()
	v.engine.Close()
}

// ReadAt OCRs the crop around an image-space position. An unreadable region
// yields an empty string, never an error: missing text is a normal outcome
// on sparse plans.
func (v *Verifier) ReadAt(p geometry.Point2D) string {
	bounds := geometry.RectInt{
		X:      int(p.X) - v.box,
		Y:      int(p.Y) - v.box,
		Width:  v.box * 2,
		Height: v.box * 2,
	}
	text, err := v.engine.ReadRegion(v.img, bounds)
	if err != nil {
		return ""
	}
	return text
}
