package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for pipeline tuning.
// The schema matches the /api/config endpoint so the same JSON can be
// used for both startup configuration and inspection at runtime.
type TuningConfig struct {
	// Detection params
	DetectionSigma      *float64 `json:"detection_sigma,omitempty"`
	DetectionMinSamples *int     `json:"detection_min_samples,omitempty"`
	DepthWindowSamples  *int     `json:"depth_window_samples,omitempty"`

	// Pipeline defaults applied when the request does not say otherwise
	NormalizeDefault *bool `json:"normalize_default,omitempty"`
	DetrendDefault   *bool `json:"detrend_default,omitempty"`

	// Detection worker params
	WorkerInterval *string `json:"worker_interval,omitempty"` // duration string like "15m"
	WorkerEnabled  *bool   `json:"worker_enabled,omitempty"`

	// Archive client params
	CatalogCacheTTL *string `json:"catalog_cache_ttl,omitempty"` // duration string like "1h"
	ArchiveBaseURL  *string `json:"archive_base_url,omitempty"`
	MASTBaseURL     *string `json:"mast_base_url,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.DetectionSigma != nil && *c.DetectionSigma <= 0 {
		return fmt.Errorf("detection_sigma must be positive, got %f", *c.DetectionSigma)
	}
	if c.DetectionMinSamples != nil && *c.DetectionMinSamples < 0 {
		return fmt.Errorf("detection_min_samples must be non-negative, got %d", *c.DetectionMinSamples)
	}
	if c.DepthWindowSamples != nil && *c.DepthWindowSamples < 0 {
		return fmt.Errorf("depth_window_samples must be non-negative, got %d", *c.DepthWindowSamples)
	}
	if c.WorkerInterval != nil && *c.WorkerInterval != "" {
		if _, err := time.ParseDuration(*c.WorkerInterval); err != nil {
			return fmt.Errorf("invalid worker_interval '%s': %w", *c.WorkerInterval, err)
		}
	}
	if c.CatalogCacheTTL != nil && *c.CatalogCacheTTL != "" {
		if _, err := time.ParseDuration(*c.CatalogCacheTTL); err != nil {
			return fmt.Errorf("invalid catalog_cache_ttl '%s': %w", *c.CatalogCacheTTL, err)
		}
	}
	return nil
}

// GetDetectionSigma returns the MAD multiplier or the documented default of 3.
func (c *TuningConfig) GetDetectionSigma() float64 {
	if c.DetectionSigma == nil {
		return 3.0
	}
	return *c.DetectionSigma
}

// GetDetectionMinSamples returns the minimum curve length for detection.
func (c *TuningConfig) GetDetectionMinSamples() int {
	if c.DetectionMinSamples == nil {
		return 100
	}
	return *c.DetectionMinSamples
}

// GetDepthWindowSamples returns the depth measurement half-window.
func (c *TuningConfig) GetDepthWindowSamples() int {
	if c.DepthWindowSamples == nil {
		return 10
	}
	return *c.DepthWindowSamples
}

// GetNormalizeDefault returns whether curves are normalised when the
// request does not say.
func (c *TuningConfig) GetNormalizeDefault() bool {
	if c.NormalizeDefault == nil {
		return true
	}
	return *c.NormalizeDefault
}

// GetDetrendDefault returns whether curves are detrended when the
// request does not say.
func (c *TuningConfig) GetDetrendDefault() bool {
	if c.DetrendDefault == nil {
		return false
	}
	return *c.DetrendDefault
}

// GetWorkerInterval parses and returns the WorkerInterval as a time.Duration.
func (c *TuningConfig) GetWorkerInterval() time.Duration {
	if c.WorkerInterval == nil || *c.WorkerInterval == "" {
		return 15 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.WorkerInterval)
	if err != nil {
		return 15 * time.Minute // default on parse error
	}
	return d
}

// GetWorkerEnabled returns whether the detection worker starts enabled.
func (c *TuningConfig) GetWorkerEnabled() bool {
	if c.WorkerEnabled == nil {
		return true
	}
	return *c.WorkerEnabled
}

// GetCatalogCacheTTL parses and returns the catalog cache TTL.
func (c *TuningConfig) GetCatalogCacheTTL() time.Duration {
	if c.CatalogCacheTTL == nil || *c.CatalogCacheTTL == "" {
		return time.Hour // default
	}
	d, err := time.ParseDuration(*c.CatalogCacheTTL)
	if err != nil {
		return time.Hour // default on parse error
	}
	return d
}

// GetArchiveBaseURL returns the NASA Exoplanet Archive TAP endpoint.
func (c *TuningConfig) GetArchiveBaseURL() string {
	if c.ArchiveBaseURL == nil || *c.ArchiveBaseURL == "" {
		return "https://exoplanetarchive.ipac.caltech.edu/TAP"
	}
	return *c.ArchiveBaseURL
}

// GetMASTBaseURL returns the MAST download endpoint.
func (c *TuningConfig) GetMASTBaseURL() string {
	if c.MASTBaseURL == nil || *c.MASTBaseURL == "" {
		return "https://mast.stsci.edu/api/v0.1"
	}
	return *c.MASTBaseURL
}
