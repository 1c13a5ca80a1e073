package raster

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-tracer/pkg/colorutil"
	"plan-tracer/pkg/geometry"
)

func whiteBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return img
}

func TestAnnotatePreservesDimensions(t *testing.T) {
	base := whiteBase(120, 80)
	out := Annotate(base, nil, nil, DefaultAnnotateOptions())
	assert.Equal(t, base.Bounds(), out.Bounds())

	// The base is copied, not drawn on.
	red := color.RGBA{255, 0, 0, 255}
	Annotate(base, []Marker{{Center: geometry.Point2D{X: 60, Y: 40}, Color: red}},
		nil, DefaultAnnotateOptions())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, base.RGBAAt(60, 40-18))
}

func TestAnnotateDrawsMarkerRing(t *testing.T) {
	base := whiteBase(120, 80)
	red := color.RGBA{255, 0, 0, 255}
	opts := AnnotateOptions{Radius: 10, OutlineWidth: 1, LineWidth: 1}

	out := Annotate(base, []Marker{{Center: geometry.Point2D{X: 60, Y: 40}, Color: red}}, nil, opts)

	// Ring pixels at the cardinal points, untouched center.
	assert.Equal(t, red, out.RGBAAt(60, 30))
	assert.Equal(t, red, out.RGBAAt(60, 50))
	assert.Equal(t, red, out.RGBAAt(50, 40))
	assert.Equal(t, red, out.RGBAAt(70, 40))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(60, 40))
}

func TestAnnotateDrawsLink(t *testing.T) {
	base := whiteBase(120, 80)
	blue := color.RGBA{0, 0, 255, 255}
	opts := AnnotateOptions{Radius: 5, OutlineWidth: 1, LineWidth: 1}

	out := Annotate(base, nil, []Link{{
		From:  geometry.Point2D{X: 10, Y: 40},
		To:    geometry.Point2D{X: 110, Y: 40},
		Color: blue,
	}}, opts)

	assert.Equal(t, blue, out.RGBAAt(60, 40))
}

func TestAnnotateFallsBackOnZeroAlpha(t *testing.T) {
	base := whiteBase(60, 60)
	opts := AnnotateOptions{Radius: 10, OutlineWidth: 1}

	out := Annotate(base, []Marker{{Center: geometry.Point2D{X: 30, Y: 30}}}, nil, opts)
	assert.Equal(t, colorutil.FallbackGrey, out.RGBAAt(30, 20))
}

func TestAnnotateClipsAtEdges(t *testing.T) {
	base := whiteBase(40, 40)
	red := color.RGBA{255, 0, 0, 255}
	opts := AnnotateOptions{Radius: 30, OutlineWidth: 2, LineWidth: 2, LabelTick: 3}

	// Marker and link centered off-canvas must not panic.
	out := Annotate(base,
		[]Marker{{Center: geometry.Point2D{X: -5, Y: -5}, Color: red}},
		[]Link{{From: geometry.Point2D{X: -10, Y: 20}, To: geometry.Point2D{X: 60, Y: 20}, Color: red}},
		opts)
	assert.Equal(t, base.Bounds(), out.Bounds())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := whiteBase(16, 12)
	img.Set(3, 4, color.RGBA{10, 20, 30, 255})

	for _, name := range []string{"out.png", "out.tif"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, img))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, img.Bounds().Dx(), got.Bounds().Dx())
		assert.Equal(t, img.Bounds().Dy(), got.Bounds().Dy())
	}

	assert.Error(t, Save(filepath.Join(dir, "out.bmp"), img))
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("plan.PNG"))
	assert.True(t, IsSupportedFormat("plan.jpeg"))
	assert.True(t, IsSupportedFormat("plan.tiff"))
	assert.False(t, IsSupportedFormat("plan.bmp"))
}
