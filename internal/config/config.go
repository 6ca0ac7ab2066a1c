package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath    string
	LogDir      string
	EventDir    string
	ScheduleDir string

	Workers           int
	Saturation        float64
	Species           string
	InitialPopulation int
	DurationDays      int
	FeedCapacityKg    float64
	BatchTimeout      time.Duration
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("AQUASIM_DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	eventDir := filepath.Join(dataPath, "events")
	scheduleDir := filepath.Join(dataPath, "schedules")

	for _, dir := range []string{logDir, eventDir, scheduleDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create data directory")
		}
	}

	timeoutMins := getEnvInt("AQUASIM_BATCH_TIMEOUT_MINUTES", 60)

	cfg := &AppConfig{
		DataPath:          dataPath,
		LogDir:            logDir,
		EventDir:          eventDir,
		ScheduleDir:       scheduleDir,
		Workers:           getEnvInt("AQUASIM_WORKERS", 0),
		Saturation:        getEnvFloat("AQUASIM_SATURATION", 0.85),
		Species:           getEnv("AQUASIM_SPECIES", "Atlantic Salmon"),
		InitialPopulation: getEnvInt("AQUASIM_INITIAL_POPULATION", 3_500_000),
		DurationDays:      getEnvInt("AQUASIM_DURATION_DAYS", 900),
		FeedCapacityKg:    getEnvFloat("AQUASIM_FEED_CAPACITY_KG", 50_000_000),
		BatchTimeout:      time.Duration(timeoutMins) * time.Minute,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
