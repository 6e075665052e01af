package execution

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// Record is one completed run as persisted to the history file.
type Record struct {
	ID         string    `yaml:"id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Mode       string    `yaml:"mode"`
	State      string    `yaml:"state"`
	Applied    int       `yaml:"applied"`
	Skipped    int       `yaml:"skipped"`
	Simulated  int       `yaml:"simulated"`
	Failed     int       `yaml:"failed"`
	Warnings   int       `yaml:"warnings"`
}

// NewRecord builds a history record from a finished run and its results.
func NewRecord(run *Run, startedAt time.Time, result ExecuteResult) Record {
	rec := Record{
		ID:         run.ID(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Mode:       run.Mode().String(),
		State:      string(run.State()),
		Warnings:   result.Warnings(),
	}
	for i := range result.Results {
		switch result.Results[i].Outcome() {
		case OutcomeApplied:
			rec.Applied++
		case OutcomeSkipped:
			rec.Skipped++
		case OutcomeSimulated:
			rec.Simulated++
		case OutcomeFailed:
			rec.Failed++
		}
	}
	return rec
}

// History appends and lists run records in a YAML file.
type History struct {
	fs   ports.FileSystem
	path string
}

// NewHistory creates a History stored at path.
func NewHistory(fs ports.FileSystem, path string) *History {
	return &History{fs: fs, path: path}
}

// Append adds a record to the history file, creating it if missing.
func (h *History) Append(rec Record) error {
	records, err := h.List()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	return h.fs.WriteFile(h.path, data, 0o644)
}

// List returns all records in chronological order. A missing history file is
// an empty history, not an error.
func (h *History) List() ([]Record, error) {
	if !h.fs.Exists(h.path) {
		return []Record{}, nil
	}

	data, err := h.fs.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
