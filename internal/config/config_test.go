package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/sphsum/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Kernel != "wendland_c2" {
		t.Errorf("expected kernel wendland_c2, got %s", cfg.Kernel)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("tank")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scheme != "complex" {
		t.Errorf("expected scheme complex, got %s", cfg.Scheme)
	}
	water, ok := cfg.Body("water")
	if !ok {
		t.Fatal("tank has no water body")
	}
	if len(water.Contacts) != 2 {
		t.Errorf("expected 2 contacts, got %v", water.Contacts)
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	cfg := GetPreset("tank")
	cfg.Steps = 999
	cfg.Bodies[0].Contacts[0] = "changed"

	again := GetPreset("tank")
	if again.Steps == 999 {
		t.Error("preset steps were modified through a copy")
	}
	if again.Bodies[0].Contacts[0] == "changed" {
		t.Error("preset contacts were modified through a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			if err := GetPreset(name).Validate(); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.yaml")
	cfg := GetPreset("refined")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Scheme != cfg.Scheme || loaded.Steps != cfg.Steps {
		t.Errorf("loaded %s/%d, want %s/%d", loaded.Scheme, loaded.Steps, cfg.Scheme, cfg.Steps)
	}
	if len(loaded.Bodies) != len(cfg.Bodies) {
		t.Fatalf("expected %d bodies, got %d", len(cfg.Bodies), len(loaded.Bodies))
	}
	r := loaded.Bodies[0].Refinement
	if r == nil || r.Ratio != 1.5 || r.From != 0.5 {
		t.Errorf("refinement not preserved: %+v", r)
	}
}

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
name: minimal
bodies:
  - name: water
    rho0: 1000
    dx: 0.05
    size: [1, 1]
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Kernel != DefaultKernel || cfg.HRatio != DefaultHRatio {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Bodies) != 1 || cfg.Bodies[0].Name != "water" {
		t.Errorf("default body leaked into case: %+v", cfg.Bodies)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		domain bool
	}{
		{"no bodies", "name: x\n", false},
		{"unknown kernel", "kernel: gaussian\nbodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1]}]\n", false},
		{"negative rho0", "bodies: [{name: a, rho0: -1, dx: 0.1, size: [1, 1]}]\n", false},
		{"unknown field", "bodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1], colour: red}]\n", false},
		{"bad dimension", "dimension: 4\nbodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1]}]\n", false},
		{"unknown contact", "bodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1], contacts: [b]}]\n", true},
		{"self contact", "bodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1], contacts: [a]}]\n", true},
		{"duplicate body", "bodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1]}, {name: a, rho0: 1, dx: 0.1, size: [1, 1]}]\n", true},
		{"flat 3d body", "dimension: 3\nbodies: [{name: a, rho0: 1, dx: 0.1, size: [1, 1]}]\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.domain && !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
