// Package colorutil provides shared color utilities for the plan tracer application.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}

	// FallbackGrey is used when an entity carries no usable color.
	FallbackGrey = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// aciTable maps the low AutoCAD color indices (1-9) to RGB. Drawings rarely
// use more than these for device layers; higher indices fall back to the
// generated wheel in aciWheel.
var aciTable = map[int]color.RGBA{
	1: Red,
	2: Yellow,
	3: Green,
	4: {R: 0, G: 255, B: 255, A: 255}, // cyan
	5: Blue,
	6: Magenta,
	7: White,
	8: {R: 128, G: 128, B: 128, A: 255},
	9: {R: 192, G: 192, B: 192, A: 255},
}

// FromACI resolves an AutoCAD color index (1-255) to an RGB color.
// Index 0 (BYBLOCK) and 256 (BYLAYER) have no color of their own and resolve
// to FallbackGrey; callers holding the layer table should resolve those first.
func FromACI(aci int) color.RGBA {
	if c, ok := aciTable[aci]; ok {
		return c
	}
	if aci < 1 || aci > 255 {
		return FallbackGrey
	}
	return aciWheel(aci)
}

// aciWheel approximates the extended ACI palette: indices 10-249 cycle hues in
// steps of 10 with darkness bands, 250-255 are greys.
func aciWheel(aci int) color.RGBA {
	if aci >= 250 {
		v := uint8(51 * (aci - 250 + 1))
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	hue := float64((aci-10)/10) * 360.0 / 24.0
	shade := (aci - 10) % 10
	val := 1.0 - float64(shade)*0.08
	r, g, b := hsvToRGB(hue, 1.0, val)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FromRGB builds an opaque RGBA color from an [r,g,b] triple, clamping
// components to the byte range.
func FromRGB(rgb [3]int) color.RGBA {
	clamp := func(v int) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return color.RGBA{R: clamp(rgb[0]), G: clamp(rgb[1]), B: clamp(rgb[2]), A: 255}
}

// Darken reduces the brightness of a color.
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * (1 - factor)),
		G: uint8(float64(c.G) * (1 - factor)),
		B: uint8(float64(c.B) * (1 - factor)),
		A: c.A,
	}
}

// hsvToRGB converts H (0-360), S (0-1), V (0-1) to RGB bytes.
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	hp := h / 60.0
	x := c * (1 - abs(mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := v - c
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func mod(a, b float64) float64 {
	m := a - b*float64(int(a/b))
	if m < 0 {
		m += b
	}
	return m
}
