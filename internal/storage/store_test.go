package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/sphsum/internal/config"
	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/particles"
	"github.com/san-kum/sphsum/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

func testBodies(t *testing.T) []*particles.Body {
	t.Helper()
	k, err := kernel.New("wendland_c2", 2)
	if err != nil {
		t.Fatal(err)
	}
	water, err := particles.NewLatticeBody(particles.LatticeSpec{
		Name: "water", Rho0: 1000, Dx: 0.5, Size: r3.Vec{X: 1, Y: 1}, HRatio: 1.3,
	}, k)
	if err != nil {
		t.Fatal(err)
	}
	copy(water.Density(), []float64{998.5, 1000, 1001.25, 1000.125})

	wall, err := particles.NewBody("wall", []r3.Vec{{X: -1, Y: 2, Z: 0.5}}, particles.Material{Rho0: 2700}, 0.65, k)
	if err != nil {
		t.Fatal(err)
	}
	return []*particles.Body{water, wall}
}

func testResult() *sim.Result {
	return &sim.Result{
		Times:      []float64{0.01, 0.02},
		StepsTaken: 2,
		Bodies:     []string{"water", "wall"},
		Metrics: map[string]map[string]float64{
			"water": {"density_error": 0.0015},
		},
		Snapshots: []sim.Snapshot{
			{Step: 1, Time: 0.02, Density: map[string][]float64{"water": {1, 2, 3, 4}}},
		},
		Elapsed: 1500 * time.Millisecond,
	}
}

func testCase() *config.Config {
	cfg := config.GetPreset("tank")
	cfg.Bodies = []config.BodyConfig{
		{Name: "water", Rho0: 1000, Dx: 0.5, Size: []float64{1, 1}, Contacts: []string{"wall"}},
		{Name: "wall", Rho0: 2700, Dx: 0.5, Size: []float64{1, 1}, Scheme: config.SchemeNone},
	}
	return cfg
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testCase(), testResult(), testBodies(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Case != "tank" || meta.Scheme != "complex" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Steps != 2 || meta.ElapsedSec != 1.5 {
		t.Errorf("expected 2 steps in 1.5s, got %d in %v", meta.Steps, meta.ElapsedSec)
	}
	if meta.Metrics["water"]["density_error"] != 0.0015 {
		t.Errorf("metrics not preserved: %v", meta.Metrics)
	}
	if len(meta.Bodies) != 2 || meta.Bodies[1].Scheme != config.SchemeNone || meta.Bodies[0].Particles != 4 {
		t.Errorf("unexpected body summaries %+v", meta.Bodies)
	}

	cfg, err := st.LoadCase(runID)
	if err != nil {
		t.Fatalf("load case failed: %v", err)
	}
	if cfg.Name != "tank" || len(cfg.Bodies) != 2 {
		t.Errorf("unexpected case %+v", cfg)
	}
}

func TestStoreLoadDensity(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testCase(), testResult(), testBodies(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	all, err := st.LoadDensity(runID, "")
	if err != nil {
		t.Fatalf("load density failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 particles, got %d", len(all))
	}
	if all[2].Rho != 1001.25 || all[2].Body != "water" || all[2].Index != 2 {
		t.Errorf("unexpected particle %+v", all[2])
	}
	if wall := all[4]; wall.Pos != (r3.Vec{X: -1, Y: 2, Z: 0.5}) || wall.Rho != 2700 {
		t.Errorf("unexpected wall particle %+v", wall)
	}

	water, err := st.LoadDensity(runID, "water")
	if err != nil {
		t.Fatalf("load density failed: %v", err)
	}
	if len(water) != 4 {
		t.Errorf("expected 4 water particles, got %d", len(water))
	}
	if water[0].Pos != (r3.Vec{X: 0.25, Y: 0.25}) {
		t.Errorf("unexpected position %v", water[0].Pos)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(testCase(), testResult(), testBodies(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testCase(), testResult(), testBodies(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, densityFile, caseFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, testCase(), testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Steps != 2 || len(data.Times) != 2 {
		t.Errorf("unexpected export %+v", data)
	}
	if got := data.Density["water"]; len(got) != 4 || got[3] != 4 {
		t.Errorf("final density not exported: %v", got)
	}
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return f.closeErr
}

func TestWriteCloseReportsCloseError(t *testing.T) {
	errDisk := errors.New("disk full")
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "rho\n")
		return err
	}

	f := &failingCloser{closeErr: errDisk}
	if err := writeClose(f, write); !errors.Is(err, errDisk) {
		t.Errorf("expected close error, got %v", err)
	}
	if !f.closed || f.String() != "rho\n" {
		t.Errorf("unexpected state closed=%v content=%q", f.closed, f.String())
	}

	errWrite := errors.New("short write")
	f = &failingCloser{closeErr: errDisk}
	err := writeClose(f, func(io.Writer) error { return errWrite })
	if !errors.Is(err, errWrite) || !f.closed {
		t.Errorf("write error must win and the file must close: %v", err)
	}

	if err := writeClose(&failingCloser{}, write); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
