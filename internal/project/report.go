package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

// ReportVersion is written into every report file.
const ReportVersion = "1.0.0"

// Report is the saved outcome of one optimization run: the settings it ran
// with, the best layout found and the per-generation history.
type Report struct {
	Version     string                  `json:"version"`
	CreatedAt   string                  `json:"created_at"`
	RunID       string                  `json:"run_id"`
	Seed        int64                   `json:"seed"`
	Config      engine.Config           `json:"config"`
	Stopped     engine.StopReason       `json:"stopped"`
	Generations int                     `json:"generations"`
	Fitness     engine.Fitness          `json:"fitness"`
	Layout      model.Layout            `json:"layout"`
	History     []engine.GenerationStat `json:"history,omitempty"`
}

// NewReport captures a finished run.
func NewReport(result engine.Result, config engine.Config, seed int64) Report {
	return Report{
		Version:     ReportVersion,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		RunID:       result.RunID,
		Seed:        seed,
		Config:      config,
		Stopped:     result.Stopped,
		Generations: result.Generations,
		Fitness:     result.Best.Fitness,
		Layout:      result.Best.Layout,
		History:     result.History,
	}
}

// SaveReport writes the report as indented JSON, creating parent directories.
func SaveReport(path string, report Report) error {
	if err := writeJSON(path, report); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by SaveReport and checks that the
// layout it carries is consistent with its sheet.
func LoadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if report.Version == "" {
		return Report{}, fmt.Errorf("%s: missing version field", path)
	}
	if err := report.Layout.Validate(); err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}
