package config

import "sort"

var Presets = map[string]*Config{
	"still_water": DefaultConfig(),
	"tank": {
		Name: "tank", Dimension: 2, Kernel: DefaultKernel, Scheme: "complex",
		Steps: 20, Dt: DefaultDt, RebuildEvery: 5, Backend: DefaultBackend, HRatio: DefaultHRatio, Calibrate: true,
		Bodies: []BodyConfig{
			{Name: "water", Rho0: 1000, Dx: DefaultDx, Size: []float64{1, 0.5}, Contacts: []string{"floor", "side"}},
			{Name: "floor", Rho0: 2700, Dx: DefaultDx, Origin: []float64{-0.075, -0.075}, Size: []float64{1.075, 0.075}, Scheme: SchemeNone},
			{Name: "side", Rho0: 2700, Dx: DefaultDx, Origin: []float64{-0.075, 0}, Size: []float64{0.075, 0.5}, Scheme: SchemeNone},
		},
	},
	"dam_break": {
		Name: "dam_break", Dimension: 2, Kernel: DefaultKernel, Scheme: "free_surface_complex",
		Steps: 20, Dt: DefaultDt, RebuildEvery: 5, Backend: DefaultBackend, HRatio: DefaultHRatio, Calibrate: true,
		Bodies: []BodyConfig{
			{Name: "water", Rho0: 1000, Dx: DefaultDx, Size: []float64{0.5, 1}, Contacts: []string{"wall"}},
			{Name: "wall", Rho0: 1000, Dx: DefaultDx, Origin: []float64{-0.075, -0.075}, Size: []float64{2.075, 0.075}, Scheme: SchemeNone},
		},
	},
	"inflow": {
		Name: "inflow", Dimension: 2, Kernel: DefaultKernel, Scheme: "free_stream_complex",
		Steps: 20, Dt: DefaultDt, RebuildEvery: 5, Backend: DefaultBackend, HRatio: DefaultHRatio, Calibrate: true,
		Bodies: []BodyConfig{
			{Name: "water", Rho0: 1000, Dx: DefaultDx, Size: []float64{2, 0.5}, FreeSurfaceBand: 0.05, Contacts: []string{"bed"}},
			{Name: "bed", Rho0: 1000, Dx: DefaultDx, Origin: []float64{0, -0.075}, Size: []float64{2, 0.075}, Scheme: SchemeNone},
		},
	},
	"refined": {
		Name: "refined", Dimension: 2, Kernel: DefaultKernel, Scheme: "complex_adaptive",
		Steps: 10, Dt: DefaultDt, RebuildEvery: 5, Backend: DefaultBackend, HRatio: DefaultHRatio, Calibrate: true,
		Bodies: []BodyConfig{
			{
				Name: "water", Rho0: 1000, Dx: DefaultDx, Size: []float64{1, 1}, Contacts: []string{"floor"},
				Refinement: &RefinementConfig{Axis: 0, From: 0.5, Ratio: 1.5},
			},
			{Name: "floor", Rho0: 1000, Dx: DefaultDx, Origin: []float64{0, -0.075}, Size: []float64{1, 0.075}, Scheme: SchemeNone},
		},
	},
	"cube": {
		Name: "cube", Dimension: 3, Kernel: "cubic_spline", Scheme: "free_surface",
		Steps: 5, Dt: DefaultDt, RebuildEvery: 0, Backend: DefaultBackend, HRatio: DefaultHRatio, Calibrate: true,
		Bodies: []BodyConfig{
			{Name: "water", Rho0: 1000, Dx: 0.05, Size: []float64{0.5, 0.5, 0.5}},
		},
	},
}

// SchemeNone mirrors the registry name for bodies that are never summed.
const SchemeNone = "none"

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
