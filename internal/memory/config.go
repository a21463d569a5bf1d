package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"video-platform/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The remainder is left for ffmpeg children and image decoding.
const DefaultMemoryRatio = 0.85

// ConfigResult describes how GOMEMLIMIT was arrived at.
type ConfigResult struct {
	Configured     bool
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

type envFunc func(string) string

// ConfigureFromEnv sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
// unless GOMEMLIMIT is already set. Call it before significant allocation.
func ConfigureFromEnv() ConfigResult {
	result := resolve(os.Getenv)
	if result.Source == "MEMORY_LIMIT" {
		debug.SetMemoryLimit(result.GoMemLimit)
		logging.Info("Configured GOMEMLIMIT: %d bytes (%.0f%% of %d)", result.GoMemLimit, result.Ratio*100, result.ContainerLimit)
	}
	return result
}

func resolve(getenv envFunc) ConfigResult {
	if v := getenv("GOMEMLIMIT"); v != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		return result
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		return ConfigResult{Source: "none"}
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return ConfigResult{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if s := getenv("MEMORY_RATIO"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 || r > 1 {
			logging.Warn("MEMORY_RATIO %q out of range (0,1], using %.2f", s, DefaultMemoryRatio)
		} else {
			ratio = r
		}
	}

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: limit,
		GoMemLimit:     int64(float64(limit) * ratio),
		Ratio:          ratio,
	}
}
