// Package config loads the small set of knobs the wire server and worker
// pool need, as a thin env-var reader.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddress         string
	ListenPort            int
	WorkerPoolSize        int
	ReplayCheckpointEvery uint64
	MetricsAddress        string
}

func Load() Config {
	return Config{
		ListenAddress:         getenv("MATCHCORE_ADDRESS", "0.0.0.0"),
		ListenPort:            getenvInt("MATCHCORE_PORT", 9001),
		WorkerPoolSize:        getenvInt("MATCHCORE_WORKERS", 10),
		ReplayCheckpointEvery: uint64(getenvInt("MATCHCORE_CHECKPOINT_EVERY", 10000)),
		MetricsAddress:        getenv("MATCHCORE_METRICS_ADDRESS", ":9090"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
