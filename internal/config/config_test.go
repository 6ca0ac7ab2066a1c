package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AQUASIM_DATA_PATH", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Saturation != 0.85 {
		t.Errorf("Expected default saturation 0.85, got %f", cfg.Saturation)
	}
	if cfg.InitialPopulation != 3_500_000 {
		t.Errorf("Expected default population 3500000, got %d", cfg.InitialPopulation)
	}
	if cfg.BatchTimeout != 60*time.Minute {
		t.Errorf("Expected default batch timeout 60m, got %s", cfg.BatchTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AQUASIM_DATA_PATH", t.TempDir())
	t.Setenv("AQUASIM_WORKERS", "14")
	t.Setenv("AQUASIM_SATURATION", "0.5")
	t.Setenv("AQUASIM_DURATION_DAYS", "200")
	t.Setenv("AQUASIM_BATCH_TIMEOUT_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 14 || cfg.Saturation != 0.5 || cfg.DurationDays != 200 {
		t.Errorf("Env overrides not applied: %+v", cfg)
	}
	if cfg.BatchTimeout != 5*time.Minute {
		t.Errorf("Expected 5m timeout, got %s", cfg.BatchTimeout)
	}
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("AQUASIM_DATA_PATH", t.TempDir())
	t.Setenv("AQUASIM_WORKERS", "many")
	t.Setenv("AQUASIM_SATURATION", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 0 || cfg.Saturation != 0.85 {
		t.Errorf("Expected fallbacks for unparseable values, got %+v", cfg)
	}
}
