package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/sphsum/internal/config"
	"github.com/san-kum/sphsum/internal/sim"
)

type ExportData struct {
	Case    string                        `json:"case"`
	Kernel  string                        `json:"kernel"`
	Scheme  string                        `json:"scheme"`
	Dt      float64                       `json:"dt"`
	Steps   int                           `json:"steps"`
	Times   []float64                     `json:"times"`
	Metrics map[string]map[string]float64 `json:"metrics"`
	Density map[string][]float64          `json:"density"`
}

func newExportData(cfg *config.Config, result *sim.Result) ExportData {
	data := ExportData{
		Case:    cfg.Name,
		Kernel:  cfg.Kernel,
		Scheme:  cfg.Scheme,
		Dt:      cfg.Dt,
		Steps:   result.StepsTaken,
		Times:   result.Times,
		Metrics: result.Metrics,
	}
	if final, ok := result.Final(); ok {
		data.Density = final.Density
	}
	return data
}

// ExportJSON writes the run summary and the final density field.
func ExportJSON(w io.Writer, cfg *config.Config, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(cfg, result))
}

func ExportJSONFile(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, cfg, result)
}
