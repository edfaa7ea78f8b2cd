package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/sim"
)

type ExportData struct {
	Scene      string             `json:"scene"`
	Dt         float64            `json:"dt"`
	Substeps   int                `json:"substeps"`
	Multiplier float64            `json:"multiplier"`
	Frames     []int              `json:"frames"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Metrics    map[string]float64 `json:"metrics"`
	Collisions int                `json:"collisions"`
}

func newExportData(name string, cfg *config.Config, result *sim.Result) ExportData {
	data := ExportData{
		Scene:      name,
		Dt:         cfg.Dt,
		Substeps:   cfg.Substeps,
		Multiplier: cfg.Multiplier,
		Frames:     result.Frames,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Metrics:    result.Metrics,
		Collisions: result.Collisions.Total(),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	return data
}

func encodeJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path, name string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return encodeJSON(file, newExportData(name, cfg, result))
}

func ExportJSONStdout(name string, cfg *config.Config, result *sim.Result) error {
	return encodeJSON(os.Stdout, newExportData(name, cfg, result))
}

// ExportCSV writes stored snapshots as time, x0, y0, ... rows.
func ExportCSV(w io.Writer, states []sim.State, times []float64) error {
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	cw := csv.NewWriter(w)
	header := []string{"time"}
	for i := 0; i < states[0].Particles(); i++ {
		header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, st := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, v := range st {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
