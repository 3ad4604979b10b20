// Package export writes density fields as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/sphsum/internal/viz"
)

type bounds struct {
	minX, minY, rangeX, rangeY float64
}

// fit returns padded bounds of the points.
func fit(xs, ys []float64) bounds {
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	return bounds{minX: minX, minY: minY, rangeX: rangeX * 1.1, rangeY: rangeY * 1.1}
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// DensityColor maps rho onto blue (rho0-spread) through white (rho0) to red
// (rho0+spread).
func DensityColor(rho, rho0, spread float64) string {
	t := (rho - rho0) / spread
	t = math.Max(-1, math.Min(1, t))
	fade := func(v float64) int { return int(math.Round(255 * (1 - v))) }
	if t < 0 {
		return fmt.Sprintf("#%02x%02xff", fade(-t), fade(-t))
	}
	return fmt.Sprintf("#ff%02x%02x", fade(t), fade(t))
}

// DensityToSVG draws one disc per particle, y pointing up. A non-positive
// spread uses the largest deviation in the data.
func DensityToSVG(points []viz.Point, rho0, spread float64, width, height int) string {
	if len(points) == 0 {
		return ""
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	maxDev := 0.0
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
		maxDev = math.Max(maxDev, math.Abs(p.Rho-rho0))
	}
	if spread <= 0 {
		spread = maxDev
	}
	if spread == 0 {
		spread = 1
	}
	b := fit(xs, ys)

	scale := math.Min(float64(width)/b.rangeX, float64(height)/b.rangeY)
	radius := math.Max(1, 0.4*scale*math.Sqrt(b.rangeX*b.rangeY/float64(len(points))))

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString("<g>\n")
	for _, p := range points {
		cx := (p.X - b.minX) * scale
		cy := float64(height) - (p.Y-b.minY)*scale
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, radius, DensityColor(p.Rho, rho0, spread))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ProfileToSVG draws a polyline through (xs[i], ys[i]).
func ProfileToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	if len(xs) < 2 || len(xs) != len(ys) {
		return ""
	}
	b := fit(xs, ys)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i := range xs {
		x := (xs[i] - b.minX) / b.rangeX * float64(width)
		y := float64(height) - (ys[i]-b.minY)/b.rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
