// Command calibtest solves a calibration spec and prints the transform and
// per-pair residuals, for dialing in correspondence points.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"plan-tracer/internal/calibration"
)

func main() {
	spec := flag.String("calib", "", "Calibration pairs 'cadX,cadY:imgX,imgY;...'")
	flag.Parse()

	if *spec == "" {
		fmt.Println("Usage: calibtest -calib <pairs>")
		os.Exit(1)
	}

	pairs, err := calibration.ParseSpec(*spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calibration: %v\n", err)
		os.Exit(1)
	}

	transform, err := calibration.Solve(pairs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calibration: %v\n", err)
		os.Exit(1)
	}

	m := transform.ToMatrix()
	fmt.Printf("Transform:\n")
	fmt.Printf("  [%12.6f %12.6f %12.2f]\n", m[0][0], m[0][1], m[0][2])
	fmt.Printf("  [%12.6f %12.6f %12.2f]\n", m[1][0], m[1][1], m[1][2])

	angle := math.Atan2(transform.C, transform.A) * 180 / math.Pi
	scale := math.Sqrt(transform.A*transform.A + transform.C*transform.C)
	fmt.Printf("Rotation: %.4f°\n", angle)
	fmt.Printf("Scale: %.6f\n", scale)
	fmt.Printf("Determinant: %.6f\n", transform.Det())

	fmt.Printf("\nPer-pair residuals:\n")
	residuals := calibration.Residuals(pairs, transform)
	for i, r := range residuals {
		p := pairs[i]
		fmt.Printf("  CAD (%8.2f, %8.2f) -> image (%7.1f, %7.1f)  err=%.3f px\n",
			p.CAD.X, p.CAD.Y, p.Image.X, p.Image.Y, r)
	}
	fmt.Printf("Mean error: %.3f px\n", calibration.MeanError(pairs, transform))
}
