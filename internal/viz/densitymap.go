package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Point is a particle projected onto the x-y plane.
type Point struct {
	X, Y, Rho float64
}

// Band classifies a relative density deviation.
type Band int

const (
	BandNone Band = iota
	BandUnder
	BandNear
	BandOver
)

// Classify puts (rho-rho0)/rho0 into a band; tol is the half width of the
// near band.
func Classify(deviation, tol float64) Band {
	switch {
	case deviation < -tol:
		return BandUnder
	case deviation > tol:
		return BandOver
	default:
		return BandNear
	}
}

// DensityMap draws particles on a braille canvas. Each character cell is
// coloured by the particle in it that deviates most from rho0.
type DensityMap struct {
	canvas *Canvas
	worst  [][]float64
	filled [][]bool
	rho0   float64
	tol    float64
}

func NewDensityMap(w, h int, rho0, tol float64) *DensityMap {
	m := &DensityMap{
		canvas: NewCanvas(w, h),
		worst:  make([][]float64, h),
		filled: make([][]bool, h),
		rho0:   rho0,
		tol:    tol,
	}
	for i := range m.worst {
		m.worst[i] = make([]float64, w)
		m.filled[i] = make([]bool, w)
	}
	return m
}

// Plot replaces the map contents with the points, scaled to fill the
// canvas with y pointing up.
func (m *DensityMap) Plot(points []Point) {
	m.canvas.Clear()
	for row := range m.filled {
		clear(m.filled[row])
		clear(m.worst[row])
	}
	if len(points) == 0 {
		return
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	w, h := float64(m.canvas.Width*2-1), float64(m.canvas.Height*4-1)
	for _, p := range points {
		x := int(math.Round((p.X - minX) / rangeX * w))
		y := int(h) - int(math.Round((p.Y-minY)/rangeY*h))
		row, col, ok := m.canvas.Cell(x, y)
		if !ok {
			continue
		}
		m.canvas.Set(x, y)

		dev := (p.Rho - m.rho0) / m.rho0
		if !m.filled[row][col] || math.Abs(dev) > math.Abs(m.worst[row][col]) {
			m.worst[row][col] = dev
		}
		m.filled[row][col] = true
	}
}

// Band returns the band of a character cell, BandNone when it is empty.
func (m *DensityMap) Band(row, col int) Band {
	if !m.filled[row][col] {
		return BandNone
	}
	return Classify(m.worst[row][col], m.tol)
}

func (m *DensityMap) Canvas() *Canvas { return m.canvas }

func (m *DensityMap) Render() string {
	styles := map[Band]lipgloss.Style{
		BandUnder: SparkLow,
		BandNear:  SparkHigh,
		BandOver:  SparkMid,
	}

	var b strings.Builder
	for row, line := range m.canvas.Grid {
		for col, r := range line {
			band := m.Band(row, col)
			if band == BandNone {
				b.WriteRune(r)
				continue
			}
			b.WriteString(styles[band].Render(string(r)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
