package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ServiceConfig represents the root configuration for the model service.
// All fields are pointers so a partial JSON file overrides only the values
// it names; the Get* methods provide fallback defaults for everything else.
type ServiceConfig struct {
	// Render params
	RenderHalfSize *float64 `json:"render_half_size,omitempty"` // half-width of the rendered frame, in model units
	RenderPixels   *int     `json:"render_pixels,omitempty"`    // pixels per axis of the rendered frame

	// Fit params
	FitOrder      *int   `json:"fit_order,omitempty"`
	FitMaskBits   *int64 `json:"fit_mask_bits,omitempty"` // mask bitplanes excluded from fits
	FitUseWeights *bool  `json:"fit_use_weights,omitempty"`

	// Region params
	RegionScale *float64 `json:"region_scale,omitempty"` // ellipse scale factor for the fit footprint

	// Store params
	ListLimit *int `json:"list_limit,omitempty"` // default page size for model listings
}

// EmptyServiceConfig returns a ServiceConfig with all fields set to nil.
func EmptyServiceConfig() *ServiceConfig {
	return &ServiceConfig{}
}

// LoadServiceConfig loads a ServiceConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServiceConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServiceConfig) Validate() error {
	if c.RenderHalfSize != nil && *c.RenderHalfSize <= 0 {
		return fmt.Errorf("render_half_size must be positive, got %f", *c.RenderHalfSize)
	}
	if c.RenderPixels != nil {
		if *c.RenderPixels < 2 || *c.RenderPixels > 4096 {
			return fmt.Errorf("render_pixels must be between 2 and 4096, got %d", *c.RenderPixels)
		}
	}
	if c.FitOrder != nil && *c.FitOrder < 0 {
		return fmt.Errorf("fit_order must be non-negative, got %d", *c.FitOrder)
	}
	if c.FitMaskBits != nil {
		if *c.FitMaskBits < 0 || *c.FitMaskBits > 0xFFFFFFFF {
			return fmt.Errorf("fit_mask_bits must fit in 32 bits, got %d", *c.FitMaskBits)
		}
	}
	if c.RegionScale != nil && *c.RegionScale <= 0 {
		return fmt.Errorf("region_scale must be positive, got %f", *c.RegionScale)
	}
	if c.ListLimit != nil {
		if *c.ListLimit <= 0 || *c.ListLimit > 1000 {
			return fmt.Errorf("list_limit must be between 1 and 1000, got %d", *c.ListLimit)
		}
	}
	return nil
}

// GetRenderHalfSize returns the render_half_size value or the default.
func (c *ServiceConfig) GetRenderHalfSize() float64 {
	if c.RenderHalfSize == nil {
		return 10.0
	}
	return *c.RenderHalfSize
}

// GetRenderPixels returns the render_pixels value or the default.
func (c *ServiceConfig) GetRenderPixels() int {
	if c.RenderPixels == nil {
		return 256
	}
	return *c.RenderPixels
}

// GetFitOrder returns the fit_order value or the default.
func (c *ServiceConfig) GetFitOrder() int {
	if c.FitOrder == nil {
		return 4
	}
	return *c.FitOrder
}

// GetFitMaskBits returns the fit_mask_bits value or the default.
func (c *ServiceConfig) GetFitMaskBits() uint32 {
	if c.FitMaskBits == nil {
		return 0
	}
	return uint32(*c.FitMaskBits)
}

// GetFitUseWeights returns the fit_use_weights value or the default.
func (c *ServiceConfig) GetFitUseWeights() bool {
	if c.FitUseWeights == nil {
		return true
	}
	return *c.FitUseWeights
}

// GetRegionScale returns the region_scale value or the default.
func (c *ServiceConfig) GetRegionScale() float64 {
	if c.RegionScale == nil {
		return 3.0
	}
	return *c.RegionScale
}

// GetListLimit returns the list_limit value or the default.
func (c *ServiceConfig) GetListLimit() int {
	if c.ListLimit == nil {
		return 100
	}
	return *c.ListLimit
}
