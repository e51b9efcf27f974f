package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Base weight overrides
}

// LoadCalibration loads base ranking weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights with
// an error so deployments degrade gracefully. Partial configurations are
// merged with defaults; only the six base weights are calibratable — the
// dynamic profile adjustments are fixed behavior.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read ranking calibration, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse ranking calibration, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// override values are applied, allowing partial calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.ProfileRelevance != 0 {
		result.ProfileRelevance = override.ProfileRelevance
	}
	if override.Trending != 0 {
		result.Trending = override.Trending
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}
	if override.Engagement != 0 {
		result.Engagement = override.Engagement
	}
	if override.Serendipity != 0 {
		result.Serendipity = override.Serendipity
	}
	if override.Diversity != 0 {
		result.Diversity = override.Diversity
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.ProfileRelevance != defaults.ProfileRelevance {
		overrides = append(overrides, fmt.Sprintf("profile_relevance: %.2f -> %.2f",
			defaults.ProfileRelevance, loaded.ProfileRelevance))
	}
	if loaded.Trending != defaults.Trending {
		overrides = append(overrides, fmt.Sprintf("trending: %.2f -> %.2f",
			defaults.Trending, loaded.Trending))
	}
	if loaded.Recency != defaults.Recency {
		overrides = append(overrides, fmt.Sprintf("recency: %.2f -> %.2f",
			defaults.Recency, loaded.Recency))
	}
	if loaded.Engagement != defaults.Engagement {
		overrides = append(overrides, fmt.Sprintf("engagement: %.2f -> %.2f",
			defaults.Engagement, loaded.Engagement))
	}
	if loaded.Serendipity != defaults.Serendipity {
		overrides = append(overrides, fmt.Sprintf("serendipity: %.2f -> %.2f",
			defaults.Serendipity, loaded.Serendipity))
	}
	if loaded.Diversity != defaults.Diversity {
		overrides = append(overrides, fmt.Sprintf("diversity: %.2f -> %.2f",
			defaults.Diversity, loaded.Diversity))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
