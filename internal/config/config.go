package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/san-kum/sphsum/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDimension    = 2
	DefaultKernel       = "wendland_c2"
	DefaultScheme       = "inner"
	DefaultSteps        = 10
	DefaultDt           = 0.001
	DefaultRebuildEvery = 1
	DefaultBackend      = "cpu"
	DefaultHRatio       = 1.3
	DefaultDx           = 0.025
)

type Config struct {
	Name         string       `yaml:"name"`
	Dimension    int          `yaml:"dimension"`
	Kernel       string       `yaml:"kernel"`
	Scheme       string       `yaml:"scheme"`
	Steps        int          `yaml:"steps"`
	Dt           float64      `yaml:"dt"`
	RebuildEvery int          `yaml:"rebuild_every"`
	Workers      int          `yaml:"workers"`
	Backend      string       `yaml:"backend"`
	HRatio       float64      `yaml:"h_ratio"`
	Calibrate    bool         `yaml:"calibrate"`
	Bodies       []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Name            string            `yaml:"name"`
	Rho0            float64           `yaml:"rho0"`
	Dx              float64           `yaml:"dx"`
	Origin          []float64         `yaml:"origin,omitempty"`
	Size            []float64         `yaml:"size"`
	Scheme          string            `yaml:"scheme,omitempty"`
	FreeSurfaceBand float64           `yaml:"free_surface_band,omitempty"`
	Refinement      *RefinementConfig `yaml:"refinement,omitempty"`
	Contacts        []string          `yaml:"contacts,omitempty"`
}

type RefinementConfig struct {
	Axis  int     `yaml:"axis"`
	From  float64 `yaml:"from"`
	Ratio float64 `yaml:"ratio"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:         "still_water",
		Dimension:    DefaultDimension,
		Kernel:       DefaultKernel,
		Scheme:       DefaultScheme,
		Steps:        DefaultSteps,
		Dt:           DefaultDt,
		RebuildEvery: DefaultRebuildEvery,
		Backend:      DefaultBackend,
		HRatio:       DefaultHRatio,
		Calibrate:    true,
		Bodies: []BodyConfig{
			{Name: "water", Rho0: 1000, Dx: DefaultDx, Size: []float64{1, 1}},
		},
	}
}

// Load reads a YAML case, checks it against the case schema, then fills a
// DefaultConfig with it. Bodies are never merged with the default body.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode case yaml: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// validateSchema round-trips the YAML document through JSON so the
// validator sees plain JSON values.
func validateSchema(doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("case is not representable as json: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := caseSchema.Validate(v); err != nil {
		return fmt.Errorf("case validation failed: %w", err)
	}
	return nil
}

// Validate checks the cross references the schema cannot express.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrInvalidConfig)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", c.Steps, dynamo.ErrInvalidConfig)
	}
	if c.HRatio <= 0 {
		return fmt.Errorf("h_ratio must be positive, got %f: %w", c.HRatio, dynamo.ErrInvalidConfig)
	}
	if len(c.Bodies) == 0 {
		return fmt.Errorf("case %s has no bodies: %w", c.Name, dynamo.ErrInvalidConfig)
	}

	names := make(map[string]bool, len(c.Bodies))
	for _, b := range c.Bodies {
		if names[b.Name] {
			return fmt.Errorf("duplicate body %q: %w", b.Name, dynamo.ErrInvalidConfig)
		}
		names[b.Name] = true
		if len(b.Size) < c.Dimension {
			return fmt.Errorf("body %s: size needs %d components: %w", b.Name, c.Dimension, dynamo.ErrInvalidConfig)
		}
	}
	for _, b := range c.Bodies {
		for _, target := range b.Contacts {
			if target == b.Name {
				return fmt.Errorf("body %s lists itself as contact: %w", b.Name, dynamo.ErrInvalidConfig)
			}
			if !names[target] {
				return fmt.Errorf("body %s: unknown contact %q: %w", b.Name, target, dynamo.ErrInvalidConfig)
			}
		}
	}
	return nil
}

// SchemeFor returns the body's own scheme or the case scheme.
func (c *Config) SchemeFor(b BodyConfig) string {
	if b.Scheme != "" {
		return b.Scheme
	}
	return c.Scheme
}

func (c *Config) Body(name string) (BodyConfig, bool) {
	for _, b := range c.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyConfig{}, false
}

// Clone returns a deep copy, so presets can be edited by callers.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		b.Origin = append([]float64(nil), b.Origin...)
		b.Size = append([]float64(nil), b.Size...)
		b.Contacts = append([]string(nil), b.Contacts...)
		if b.Refinement != nil {
			r := *b.Refinement
			b.Refinement = &r
		}
		out.Bodies[i] = b
	}
	return &out
}

func (b BodyConfig) OriginVec() r3.Vec { return vec(b.Origin) }
func (b BodyConfig) SizeVec() r3.Vec   { return vec(b.Size) }

func vec(v []float64) r3.Vec {
	var out [3]float64
	copy(out[:], v)
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}
}
