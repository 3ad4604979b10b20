package main

import (
	"math"
	"sort"

	"github.com/san-kum/sphsum/internal/storage"
)

// profile bins particles by x and returns the bin centres and the mean
// density of every non-empty bin.
func profile(particles []storage.Particle, bins int) ([]float64, []float64) {
	if len(particles) == 0 || bins <= 0 {
		return nil, nil
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, p := range particles {
		minX, maxX = math.Min(minX, p.Pos.X), math.Max(maxX, p.Pos.X)
	}
	width := (maxX - minX) / float64(bins)
	if width == 0 {
		bins, width = 1, 1
	}

	sum := make([]float64, bins)
	count := make([]int, bins)
	for _, p := range particles {
		i := int((p.Pos.X - minX) / width)
		if i >= bins {
			i = bins - 1
		}
		sum[i] += p.Rho
		count[i]++
	}

	var xs, rho []float64
	for i := range sum {
		if count[i] == 0 {
			continue
		}
		xs = append(xs, minX+(float64(i)+0.5)*width)
		rho = append(rho, sum[i]/float64(count[i]))
	}
	return xs, rho
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
