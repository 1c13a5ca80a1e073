// Package calibration derives the CAD-to-image affine transform from known
// correspondence pairs.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"plan-tracer/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// relEpsilon scales the degeneracy threshold by the coordinate magnitude so
// that drawings in millimeters and drawings in meters behave the same.
const relEpsilon = 1e-9

// Pair is a known correspondence between a CAD-space point and its pixel
// position on the reference raster.
type Pair struct {
	CAD   geometry.Point2D
	Image geometry.Point2D
}

// ErrInsufficientPairs is returned when fewer than 3 calibration pairs are
// supplied.
var ErrInsufficientPairs = errors.New("calibration needs at least 3 pairs")

// DegenerateError reports calibration points that do not span the plane
// (collinear CAD points), which leaves the affine solve singular.
type DegenerateError struct {
	Det float64
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate calibration: CAD points are collinear (det %.3g)", e.Det)
}

// ParseSpec parses a calibration spec of the form
//
//	cadX,cadY:imgX,imgY;cadX,cadY:imgX,imgY;...
//
// Empty segments are skipped so trailing semicolons are harmless.
func ParseSpec(s string) ([]Pair, error) {
	var pairs []Pair
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		left, right, ok := strings.Cut(seg, ":")
		if !ok {
			return nil, fmt.Errorf("calibration segment %q: missing ':' separator", seg)
		}
		cad, err := parsePoint(left)
		if err != nil {
			return nil, fmt.Errorf("calibration segment %q: %w", seg, err)
		}
		img, err := parsePoint(right)
		if err != nil {
			return nil, fmt.Errorf("calibration segment %q: %w", seg, err)
		}
		pairs = append(pairs, Pair{CAD: cad, Image: img})
	}
	return pairs, nil
}

func parsePoint(s string) (geometry.Point2D, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return geometry.Point2D{}, fmt.Errorf("point %q: want two comma-separated values", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("point %q: %w", s, err)
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

// Solve computes the affine transform mapping CAD points onto image points.
// Exactly 3 pairs are solved exactly; more than 3 are fit by least squares
// minimizing the squared residual in image space. Collinear CAD points yield
// a *DegenerateError.
func Solve(pairs []Pair) (geometry.AffineTransform, error) {
	if len(pairs) < 3 {
		return geometry.AffineTransform{}, ErrInsufficientPairs
	}
	if det, ok := spansPlane(pairs); !ok {
		return geometry.AffineTransform{}, &DegenerateError{Det: det}
	}
	if len(pairs) == 3 {
		return solveExact(pairs)
	}
	return solveLeastSquares(pairs)
}

// SolveSpec parses a calibration spec and solves it in one step.
func SolveSpec(s string) (geometry.AffineTransform, error) {
	pairs, err := ParseSpec(s)
	if err != nil {
		return geometry.AffineTransform{}, err
	}
	return Solve(pairs)
}

// spansPlane checks that the CAD points are not all collinear. The returned
// determinant is the largest doubled triangle area found over point triples,
// compared against a threshold relative to the coordinate magnitude.
func spansPlane(pairs []Pair) (float64, bool) {
	var scale float64 = 1
	for _, p := range pairs {
		scale = math.Max(scale, math.Max(math.Abs(p.CAD.X), math.Abs(p.CAD.Y)))
	}
	tol := relEpsilon * scale * scale

	p0 := pairs[0].CAD
	var best float64
	for i := 1; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			a := pairs[i].CAD.Sub(p0)
			b := pairs[j].CAD.Sub(p0)
			cross := a.X*b.Y - a.Y*b.X
			if math.Abs(cross) > math.Abs(best) {
				best = cross
			}
		}
	}
	return best, math.Abs(best) > tol
}

// solveExact solves the 6x6 linear system for exactly 3 pairs.
func solveExact(pairs []Pair) (geometry.AffineTransform, error) {
	a := mat.NewDense(6, 6, nil)
	b := mat.NewVecDense(6, nil)

	for i := 0; i < 3; i++ {
		x, y := pairs[i].CAD.X, pairs[i].CAD.Y
		xp, yp := pairs[i].Image.X, pairs[i].Image.Y

		// imageX = a*x + b*y + tx
		a.Set(i*2, 0, x)
		a.Set(i*2, 1, y)
		a.Set(i*2, 2, 1)
		b.SetVec(i*2, xp)

		// imageY = c*x + d*y + ty
		a.Set(i*2+1, 3, x)
		a.Set(i*2+1, 4, y)
		a.Set(i*2+1, 5, 1)
		b.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(a, b); err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("calibration solve: %w", err)
	}
	return fromParams(&params), nil
}

// solveLeastSquares fits the overdetermined system with QR decomposition.
func solveLeastSquares(pairs []Pair) (geometry.AffineTransform, error) {
	n := len(pairs)
	a := mat.NewDense(n*2, 6, nil)
	b := mat.NewVecDense(n*2, nil)

	for i := 0; i < n; i++ {
		x, y := pairs[i].CAD.X, pairs[i].CAD.Y
		xp, yp := pairs[i].Image.X, pairs[i].Image.Y

		a.Set(i*2, 0, x)
		a.Set(i*2, 1, y)
		a.Set(i*2, 2, 1)
		b.SetVec(i*2, xp)

		a.Set(i*2+1, 3, x)
		a.Set(i*2+1, 4, y)
		a.Set(i*2+1, 5, 1)
		b.SetVec(i*2+1, yp)
	}

	var qr mat.QR
	qr.Factorize(a)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("calibration least squares: %w", err)
	}
	return fromParams(&params), nil
}

func fromParams(params *mat.VecDense) geometry.AffineTransform {
	return geometry.AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}
}

// Residuals returns the image-space error of each pair under the transform.
func Residuals(pairs []Pair, t geometry.AffineTransform) []float64 {
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = t.Apply(p.CAD).Distance(p.Image)
	}
	return out
}

// MeanError returns the mean image-space residual across all pairs.
func MeanError(pairs []Pair, t geometry.AffineTransform) float64 {
	if len(pairs) == 0 {
		return math.Inf(1)
	}
	var total float64
	for _, r := range Residuals(pairs, t) {
		total += r
	}
	return total / float64(len(pairs))
}
