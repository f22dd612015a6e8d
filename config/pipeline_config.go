package config

import (
	"os"
	"strconv"
)

type PipelineConfig struct {
	OutputDir string
	// DefaultDuration is the target narration length in seconds when the
	// caller gives none.
	DefaultDuration float64
	DefaultVoiceID  string
	WorkerPoolSize  int
}

func GetPipelineConfig() *PipelineConfig {
	cfg := &PipelineConfig{
		OutputDir:       "output",
		DefaultDuration: 120,
		DefaultVoiceID:  "narrator",
		WorkerPoolSize:  16,
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("DEFAULT_DURATION"), 64); err == nil && v > 0 {
		cfg.DefaultDuration = v
	}
	if v := os.Getenv("DEFAULT_VOICE_ID"); v != "" {
		cfg.DefaultVoiceID = v
	}
	if v, err := strconv.Atoi(os.Getenv("WORKER_POOL_SIZE")); err == nil && v > 0 {
		cfg.WorkerPoolSize = v
	}
	return cfg
}
