package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/sphsum/internal/compute"
	"github.com/san-kum/sphsum/internal/config"
	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/metrics"
	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
	"github.com/san-kum/sphsum/internal/sim"
)

// Experiment is a case configuration turned into bodies, relations and
// summation schemes, ready to run.
type Experiment struct {
	cfg       *config.Config
	kernel    kernel.Kernel
	bodies    []*particles.Body
	simulator *sim.Simulator
}

func New(cfg *config.Config, reg *Registry, opts ...sim.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k, err := kernel.New(cfg.Kernel, cfg.Dimension)
	if err != nil {
		return nil, err
	}
	backend, err := compute.New(cfg.Backend, cfg.Workers)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:       cfg,
		kernel:    k,
		simulator: sim.New(backend, opts...),
	}

	byName := make(map[string]*particles.Body, len(cfg.Bodies))
	for _, bc := range cfg.Bodies {
		b, err := particles.NewLatticeBody(latticeSpec(cfg, bc), k)
		if err != nil {
			return nil, err
		}
		byName[bc.Name] = b
		e.bodies = append(e.bodies, b)
	}

	for i, bc := range cfg.Bodies {
		stage, err := e.stage(reg, bc, e.bodies[i], byName)
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", bc.Name, err)
		}
		e.simulator.AddStage(stage)
	}

	for _, f := range metrics.Defaults() {
		e.simulator.AddMetric(f)
	}
	return e, nil
}

func latticeSpec(cfg *config.Config, bc config.BodyConfig) particles.LatticeSpec {
	spec := particles.LatticeSpec{
		Name:            bc.Name,
		Rho0:            bc.Rho0,
		Dx:              bc.Dx,
		Origin:          bc.OriginVec(),
		Size:            bc.SizeVec(),
		HRatio:          cfg.HRatio,
		Calibrate:       cfg.Calibrate,
		FreeSurfaceBand: bc.FreeSurfaceBand,
	}
	if r := bc.Refinement; r != nil {
		spec.Refinement = &particles.Refinement{Axis: r.Axis, From: r.From, Ratio: r.Ratio}
	}
	return spec
}

func (e *Experiment) stage(reg *Registry, bc config.BodyConfig, b *particles.Body, byName map[string]*particles.Body) (sim.Stage, error) {
	scheme := e.cfg.SchemeFor(bc)
	if scheme == config.SchemeNone {
		return sim.Stage{Body: b}, nil
	}

	inner := neighbor.NewInnerRelation(b, e.kernel)
	c := Components{Inner: inner}
	relations := []sim.Relation{inner}

	if len(bc.Contacts) > 0 {
		targets := make([]*particles.Body, len(bc.Contacts))
		for i, name := range bc.Contacts {
			targets[i] = byName[name]
		}
		contact, err := neighbor.NewContactRelation(b, targets, e.kernel)
		if err != nil {
			return sim.Stage{}, err
		}
		c.Contact = contact
		relations = append(relations, contact)
	}

	summation, err := reg.Build(scheme, c)
	if err != nil {
		return sim.Stage{}, err
	}
	return sim.Stage{Body: b, Summation: summation, Relations: relations}, nil
}

// SimConfig is the driver configuration of the case.
func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Steps:        e.cfg.Steps,
		Dt:           e.cfg.Dt,
		RebuildEvery: e.cfg.RebuildEvery,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, e.SimConfig())
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Kernel() kernel.Kernel        { return e.kernel }
func (e *Experiment) Bodies() []*particles.Body    { return e.bodies }
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }
