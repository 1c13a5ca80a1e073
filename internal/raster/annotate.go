package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"plan-tracer/pkg/colorutil"
	"plan-tracer/pkg/geometry"
)

// Marker is one device marker in image space.
type Marker struct {
	Center geometry.Point2D
	Color  color.RGBA
}

// Link is a connecting line from a device marker to its label in image space.
type Link struct {
	From  geometry.Point2D
	To    geometry.Point2D
	Color color.RGBA
}

// AnnotateOptions configures the overlay rendering.
type AnnotateOptions struct {
	Radius       int // marker radius in pixels
	OutlineWidth int // marker ring width in pixels
	LineWidth    int // link line width in pixels
	LabelTick    int // filled dot radius at link endpoints, 0 disables
}

// DefaultAnnotateOptions returns default rendering options.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		Radius:       18,
		OutlineWidth: 2,
		LineWidth:    2,
		LabelTick:    3,
	}
}

// Annotate copies the base raster and draws links underneath markers. The
// result has the same dimensions as the base image.
func Annotate(base image.Image, markers []Marker, links []Link, opts AnnotateOptions) *image.RGBA {
	bounds := base.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	for _, l := range links {
		c := l.Color
		if c.A == 0 {
			c = colorutil.FallbackGrey
		}
		drawThickLine(out, l.From.X, l.From.Y, l.To.X, l.To.Y, opts.LineWidth, c)
		if opts.LabelTick > 0 {
			fillCircle(out, int(l.To.X), int(l.To.Y), opts.LabelTick, colorutil.Darken(c, 0.3))
		}
	}

	for _, m := range markers {
		c := m.Color
		if c.A == 0 {
			c = colorutil.FallbackGrey
		}
		cx, cy := int(m.Center.X), int(m.Center.Y)
		for w := 0; w < opts.OutlineWidth; w++ {
			drawCircle(out, cx, cy, opts.Radius-w, c)
		}
	}

	return out
}

// fillCircle fills a circle with the given color.
func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	bounds := img.Bounds()

	for y := cy - r; y <= cy+r; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}
}

// drawCircle draws a circle outline using Bresenham's algorithm.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r < 0 {
		return
	}
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, c)
		}
	}

	x := r
	y := 0
	err := 0

	for x >= y {
		setPixel(cx+x, cy+y)
		setPixel(cx+y, cy+x)
		setPixel(cx-y, cy+x)
		setPixel(cx-x, cy+y)
		setPixel(cx-x, cy-y)
		setPixel(cx-y, cy-x)
		setPixel(cx+y, cy-x)
		setPixel(cx+x, cy-y)

		y++
		if err <= 0 {
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawThickLine draws a line with given thickness.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2 float64, thickness int, c color.RGBA) {
	bounds := img.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return
	}

	// Perpendicular unit vector
	px := -dy / length
	py := dx / length

	halfThick := float64(thickness) / 2

	for t := -halfThick; t <= halfThick; t += 1.0 {
		lx1 := x1 + px*t
		ly1 := y1 + py*t
		lx2 := x2 + px*t
		ly2 := y2 + py*t

		drawLine(img, int(lx1), int(ly1), int(lx2), int(ly2), c, bounds)
	}
}

// drawLine draws a line using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA, bounds image.Rectangle) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	var sx, sy int
	if x1 < x2 {
		sx = 1
	} else {
		sx = -1
	}
	if y1 < y2 {
		sy = 1
	} else {
		sy = -1
	}

	err := dx - dy

	for {
		if x1 >= bounds.Min.X && x1 < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			img.Set(x1, y1, c)
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
