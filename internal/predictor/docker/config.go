package docker

import (
	"time"
)

// Config holds the configuration for the containerized model runtime.
type Config struct {
	// Image holds the serialized model and the runtime that loads it.
	Image string
	// Command is executed inside a pooled container. The feature vector is
	// appended as a final JSON object argument; the command must print a
	// single number on stdout.
	Command []string
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout bounds a single prediction.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
	// Pull fetches Image from its registry at start-up. Leave it off for
	// images built locally.
	Pull bool
}

// DefaultConfig provides defaults for a Python model image.
func DefaultConfig() Config {
	return Config{
		Image:       "grade-predictor-model:latest",
		Command:     []string{"python", "/app/predict.py"},
		MemoryLimit: 256 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
	}
}
