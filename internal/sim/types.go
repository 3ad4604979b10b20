package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/sphsum/internal/density"
	"github.com/san-kum/sphsum/internal/particles"
)

// Relation is a neighbor relation the driver rebuilds between steps.
type Relation interface {
	Update()
	Validate() error
}

// Stage is one body and the summation that updates its density. A nil
// Summation leaves the density at its initial value.
type Stage struct {
	Body      *particles.Body
	Summation *density.Complex
	Relations []Relation
}

type Metric interface {
	Name() string
	Observe(b *particles.Body, t float64)
	Value() float64
	Reset()
}

// MetricFactory makes one metric instance per summed body.
type MetricFactory func() Metric

type Observer interface {
	OnStep(step int, t float64, bodies []*particles.Body)
}

type Config struct {
	Steps int
	Dt    float64
	// RebuildEvery rebuilds every relation each that many steps. Zero
	// keeps the relations built at setup.
	RebuildEvery int
	// SnapshotEvery records every summed body's density each that many
	// steps. Zero records only the final step.
	SnapshotEvery int
}

func DefaultConfig() Config {
	return Config{
		Steps:        10,
		Dt:           0.001,
		RebuildEvery: 1,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.RebuildEvery < 0 || c.SnapshotEvery < 0 {
		return fmt.Errorf("rebuild and snapshot intervals must not be negative")
	}
	return nil
}

// Snapshot is a copy of the density of every summed body.
type Snapshot struct {
	Step    int
	Time    float64
	Density map[string][]float64
}

type Result struct {
	Times      []float64
	StepsTaken int
	Bodies     []string
	// Metrics maps body name to metric name to value.
	Metrics   map[string]map[string]float64
	Snapshots []Snapshot
	Elapsed   time.Duration
}

// Final returns the last snapshot, or false for a run that took no step.
func (r *Result) Final() (Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}
