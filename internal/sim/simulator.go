package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sphsum/internal/compute"
	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/particles"
	"golang.org/x/sync/errgroup"
)

type Simulator struct {
	backend   compute.Backend
	stages    []Stage
	metrics   []MetricFactory
	observers []Observer
	logger    *log.Logger
}

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(backend compute.Backend, opts ...Option) *Simulator {
	s := &Simulator{
		backend: backend,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddStage(st Stage)         { s.stages = append(s.stages, st) }
func (s *Simulator) AddMetric(f MetricFactory) { s.metrics = append(s.metrics, f) }
func (s *Simulator) AddObserver(o Observer)    { s.observers = append(s.observers, o) }
func (s *Simulator) Backend() compute.Backend  { return s.backend }
func (s *Simulator) Stages() []Stage           { return s.stages }

func (s *Simulator) Bodies() []*particles.Body {
	bodies := make([]*particles.Body, len(s.stages))
	for i, st := range s.stages {
		bodies[i] = st.Body
	}
	return bodies
}

// Run performs cfg.Steps density summations. Summed bodies run
// concurrently within a step; a step starts only after the previous one
// has committed on every body.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bodies := s.Bodies()
	result := &Result{
		Times:   make([]float64, 0, cfg.Steps),
		Bodies:  make([]string, len(bodies)),
		Metrics: make(map[string]map[string]float64),
	}
	for i, b := range bodies {
		result.Bodies[i] = b.Name
	}

	observed := make([][]Metric, len(s.stages))
	for i, st := range s.stages {
		if st.Summation == nil {
			continue
		}
		for _, f := range s.metrics {
			m := f()
			m.Reset()
			observed[i] = append(observed[i], m)
		}
	}

	t := 0.0
	for step := 0; step < cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if cfg.RebuildEvery > 0 && step > 0 && step%cfg.RebuildEvery == 0 {
			if err := s.rebuild(step, t); err != nil {
				return result, err
			}
		}

		if err := s.step(step, t, cfg.Dt); err != nil {
			return result, err
		}

		t += cfg.Dt
		result.StepsTaken++
		result.Times = append(result.Times, t)

		for i, st := range s.stages {
			for _, m := range observed[i] {
				m.Observe(st.Body, t)
			}
		}
		for _, obs := range s.observers {
			obs.OnStep(step, t, bodies)
		}

		last := step == cfg.Steps-1
		if last || (cfg.SnapshotEvery > 0 && (step+1)%cfg.SnapshotEvery == 0) {
			result.Snapshots = append(result.Snapshots, s.snapshot(step, t))
		}
		s.logger.Debug("step", "n", step, "t", t)
	}

	for i, st := range s.stages {
		if len(observed[i]) == 0 {
			continue
		}
		values := make(map[string]float64, len(observed[i]))
		for _, m := range observed[i] {
			values[m.Name()] = m.Value()
		}
		result.Metrics[st.Body.Name] = values
	}

	result.Elapsed = time.Since(start)
	s.logger.Info("run complete",
		"steps", result.StepsTaken,
		"bodies", len(bodies),
		"backend", s.backend.Name(),
		"elapsed", result.Elapsed)
	return result, nil
}

func (s *Simulator) rebuild(step int, t float64) error {
	for _, st := range s.stages {
		for _, rel := range st.Relations {
			rel.Update()
			if err := rel.Validate(); err != nil {
				return &dynamo.StepError{Step: step, Time: t, Body: st.Body.Name, Wrapped: err}
			}
		}
	}
	s.logger.Debug("relations rebuilt", "step", step)
	return nil
}

func (s *Simulator) step(step int, t, dt float64) error {
	var g errgroup.Group
	for _, st := range s.stages {
		if st.Summation == nil {
			continue
		}
		g.Go(func() error {
			st.Summation.Exec(s.backend, dt)
			if i := s.nonFinite(st.Body.Density()); i >= 0 {
				return &dynamo.StepError{
					Step:    step,
					Time:    t,
					Body:    st.Body.Name,
					Wrapped: fmt.Errorf("particle %d: %w", i, dynamo.ErrNonFiniteDensity),
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Simulator) snapshot(step int, t float64) Snapshot {
	snap := Snapshot{Step: step, Time: t, Density: make(map[string][]float64)}
	for _, st := range s.stages {
		if st.Summation == nil {
			continue
		}
		snap.Density[st.Body.Name] = append([]float64(nil), st.Body.Density()...)
	}
	return snap
}

// nonFinite returns the index of a NaN or infinite density, or -1.
func (s *Simulator) nonFinite(rho []float64) int {
	var bad atomic.Int64
	bad.Store(-1)
	dynamo.ForEach(s.backend, len(rho), func(i int) {
		if math.IsNaN(rho[i]) || math.IsInf(rho[i], 0) {
			bad.CompareAndSwap(-1, int64(i))
		}
	})
	return int(bad.Load())
}
