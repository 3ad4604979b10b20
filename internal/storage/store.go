package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/sphsum/internal/config"
	"github.com/san-kum/sphsum/internal/particles"
	"github.com/san-kum/sphsum/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile = "metadata.json"
	densityFile  = "density.csv"
	caseFile     = "case.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodySummary struct {
	Name      string  `json:"name"`
	Particles int     `json:"particles"`
	Rho0      float64 `json:"rho0"`
	Scheme    string  `json:"scheme"`
}

type RunMetadata struct {
	ID         string                        `json:"id"`
	Case       string                        `json:"case"`
	Timestamp  time.Time                     `json:"timestamp"`
	Kernel     string                        `json:"kernel"`
	Dimension  int                           `json:"dimension"`
	Scheme     string                        `json:"scheme"`
	Backend    string                        `json:"backend"`
	Steps      int                           `json:"steps"`
	Dt         float64                       `json:"dt"`
	Bodies     []BodySummary                 `json:"bodies"`
	Metrics    map[string]map[string]float64 `json:"metrics"`
	ElapsedSec float64                       `json:"elapsed_sec"`
}

// Particle is one row of density.csv.
type Particle struct {
	Body  string
	Index int
	Pos   r3.Vec
	Rho   float64
}

// Save writes the case, the run metadata and the current density of every
// body into a new run directory and returns its id.
func (s *Store) Save(cfg *config.Config, result *sim.Result, bodies []*particles.Body) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Case:       cfg.Name,
		Timestamp:  now,
		Kernel:     cfg.Kernel,
		Dimension:  cfg.Dimension,
		Scheme:     cfg.Scheme,
		Backend:    cfg.Backend,
		Steps:      result.StepsTaken,
		Dt:         cfg.Dt,
		Metrics:    result.Metrics,
		ElapsedSec: result.Elapsed.Seconds(),
	}
	for _, b := range bodies {
		scheme := cfg.Scheme
		if bc, ok := cfg.Body(b.Name); ok {
			scheme = cfg.SchemeFor(bc)
		}
		meta.Bodies = append(meta.Bodies, BodySummary{
			Name:      b.Name,
			Particles: b.Size(),
			Rho0:      b.Rho0,
			Scheme:    scheme,
		})
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, caseFile), cfg); err != nil {
		return "", err
	}
	if err := writeDensity(filepath.Join(runDir, densityFile), bodies); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v interface{}) error {
	return createFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeDensity(path string, bodies []*particles.Body) error {
	return createFile(path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write([]string{"body", "index", "x", "y", "z", "rho"}); err != nil {
			return err
		}

		format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
		for _, b := range bodies {
			rho := b.Density()
			for i, p := range b.Positions() {
				row := []string{b.Name, strconv.Itoa(i), format(p.X), format(p.Y), format(p.Z), format(rho[i])}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}

		w.Flush()
		return w.Error()
	})
}

func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeClose(f, write)
}

// writeClose runs write on wc and closes it; a failed close is reported.
func writeClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return write(wc)
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadCase returns the case configuration the run was made with.
func (s *Store) LoadCase(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, caseFile))
}

// LoadDensity reads density.csv back, optionally restricted to one body.
// An empty body name returns every body.
func (s *Store) LoadDensity(runID, body string) ([]Particle, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, densityFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Particle{}, nil
	}

	out := make([]Particle, 0, len(records)-1)
	for line, record := range records[1:] {
		if body != "" && record[0] != body {
			continue
		}
		p, err := parseParticle(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", densityFile, line+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseParticle(record []string) (Particle, error) {
	if len(record) != 6 {
		return Particle{}, fmt.Errorf("expected 6 fields, got %d", len(record))
	}
	idx, err := strconv.Atoi(record[1])
	if err != nil {
		return Particle{}, err
	}
	var v [4]float64
	for k := range v {
		if v[k], err = strconv.ParseFloat(record[k+2], 64); err != nil {
			return Particle{}, err
		}
	}
	return Particle{
		Body:  record[0],
		Index: idx,
		Pos:   r3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Rho:   v[3],
	}, nil
}
