package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aquarian247/aquasim/internal/engine"
)

// Schedule is the on-disk planning artifact: the ordered batch plans plus
// the run parameters they were derived under.
type Schedule struct {
	GeneratedAt string             `yaml:"generated_at"`
	Saturation  float64            `yaml:"saturation"`
	WorkersHint int                `yaml:"workers_hint,omitempty"`
	Batches     []engine.BatchPlan `yaml:"batches"`
}

// SaveSchedule writes the schedule as YAML via an atomic replace, matching
// the event store's crash-safe persistence discipline.
func SaveSchedule(path string, s *Schedule) error {
	if s.GeneratedAt == "" {
		s.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create schedule dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}
	return nil
}

// LoadSchedule reads a previously saved schedule.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &s, nil
}
