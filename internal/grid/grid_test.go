package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-tracer/pkg/geometry"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(
		map[string]float64{"F": 460, "G": 884, "H": 3718},
		map[string]float64{"45": 234, "44": 543, "43": 900},
	)
	require.NoError(t, err)
	return g
}

func TestLocateInside(t *testing.T) {
	g := testGrid(t)

	ref := g.Locate(geometry.Point2D{X: 672, Y: 388.5}) // center of [F,G]x[45,44]
	assert.Equal(t, [2]string{"F", "G"}, ref.Cols)
	assert.Equal(t, [2]string{"45", "44"}, ref.Rows)
	assert.Equal(t, "[F,G],[45-44]", ref.Cell)
	assert.Equal(t, "center", ref.Position)
}

func TestLocateClampsOutside(t *testing.T) {
	g := testGrid(t)

	left := g.Locate(geometry.Point2D{X: 0, Y: 400})
	assert.Equal(t, [2]string{"F", "G"}, left.Cols)

	right := g.Locate(geometry.Point2D{X: 9999, Y: 400})
	assert.Equal(t, [2]string{"G", "H"}, right.Cols)

	above := g.Locate(geometry.Point2D{X: 672, Y: 0})
	assert.Equal(t, [2]string{"45", "44"}, above.Rows)
}

func TestPositionWording(t *testing.T) {
	g := testGrid(t)

	// Top-left of the [F,G]x[45,44] cell.
	ref := g.Locate(geometry.Point2D{X: 465, Y: 240})
	assert.Equal(t, "upper left corner", ref.Position)

	// Far right edge, vertically centered.
	ref = g.Locate(geometry.Point2D{X: 883, Y: 388.5})
	assert.Equal(t, "right side", ref.Position)

	// Off-center quadrant.
	ref = g.Locate(geometry.Point2D{X: 600, Y: 520})
	assert.Equal(t, "lower left area", ref.Position)
}

func TestNewRejectsShortAxis(t *testing.T) {
	_, err := New(map[string]float64{"F": 460}, map[string]float64{"45": 234, "44": 543})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"cols": {"F": 460, "G": 884}, "rows": {"45": 234, "44": 543}}`), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "F", g.Cols[0].Label)
	assert.Equal(t, 884.0, g.Cols[1].Coord)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
