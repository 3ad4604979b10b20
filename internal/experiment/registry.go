package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/sphsum/internal/density"
	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/neighbor"
)

// Components are the relations a summation scheme is assembled from.
// Contact is nil for bodies without contact targets.
type Components struct {
	Inner   *neighbor.InnerRelation
	Contact *neighbor.ContactRelation
}

type SchemeFactory func(c Components) (*density.Complex, error)

type scheme struct {
	factory     SchemeFactory
	description string
	contact     bool
}

type Registry struct {
	schemes map[string]scheme
}

func NewRegistry() *Registry {
	r := &Registry{schemes: make(map[string]scheme)}

	r.add("inner", false, "", false, "same-body summation, assign")
	r.add("inner_adaptive", true, "", false, "same-body summation with variable smoothing length")
	r.add("free_surface", false, "free_surface", false, "same-body summation floored at rho0")
	r.add("complex", false, "", true, "same-body plus contact summation, assign")
	r.add("complex_adaptive", true, "", true, "adaptive same-body plus contact summation")
	r.add("free_surface_complex", false, "free_surface", true, "contact summation floored at rho0")
	r.add("free_surface_complex_adaptive", true, "free_surface", true, "adaptive contact summation floored at rho0")
	r.add("free_stream_complex", false, "free_stream", true, "contact summation, floored away from the flagged surface")
	r.add("free_stream_complex_adaptive", true, "free_stream", true, "adaptive free-stream contact summation")

	return r
}

func (r *Registry) add(name string, adaptive bool, correction string, contact bool, description string) {
	r.Register(name, description, contact, func(c Components) (*density.Complex, error) {
		var inner density.InnerPolicy
		var err error
		if adaptive {
			inner, err = density.NewInnerAdaptive(c.Inner)
		} else {
			inner, err = density.NewInner(c.Inner)
		}
		if err != nil {
			return nil, err
		}

		switch correction {
		case "free_surface":
			inner = density.NewFreeSurface(inner)
		case "free_stream":
			if inner, err = density.NewFreeStream(inner); err != nil {
				return nil, err
			}
		}

		if !contact {
			return density.NewComplex(inner), nil
		}

		var policy density.AccumulationPolicy
		if adaptive {
			policy, err = density.NewContactAdaptive(c.Contact)
		} else {
			policy, err = density.NewContact(c.Contact)
		}
		if err != nil {
			return nil, err
		}
		return density.NewComplex(inner, policy), nil
	})
}

// Register adds or replaces a scheme. contact reports whether the factory
// needs a contact relation.
func (r *Registry) Register(name, description string, contact bool, f SchemeFactory) {
	r.schemes[name] = scheme{factory: f, description: description, contact: contact}
}

// Build assembles the named scheme for one body.
func (r *Registry) Build(name string, c Components) (*density.Complex, error) {
	s, ok := r.schemes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownScheme, name)
	}
	if c.Inner == nil {
		return nil, fmt.Errorf("scheme %s: no inner relation: %w", name, dynamo.ErrInvalidConfig)
	}
	switch {
	case s.contact && c.Contact == nil:
		return nil, fmt.Errorf("scheme %s: %w", name, dynamo.ErrNoContactTargets)
	case !s.contact && c.Contact != nil:
		return nil, fmt.Errorf("scheme %s takes no contact relation: %w", name, dynamo.ErrInvalidConfig)
	}
	return s.factory(c)
}

// NeedsContact reports whether the named scheme sums over contact bodies.
func (r *Registry) NeedsContact(name string) (bool, error) {
	s, ok := r.schemes[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", dynamo.ErrUnknownScheme, name)
	}
	return s.contact, nil
}

func (r *Registry) Description(name string) string {
	return r.schemes[name].description
}

func (r *Registry) ListSchemes() []string {
	names := make([]string, 0, len(r.schemes))
	for name := range r.schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
