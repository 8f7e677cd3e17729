// Package config loads the odometry tuning configuration. The JSON schema
// uses pointer fields so partial config files overlay the compiled defaults
// without clobbering them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/odometry.report/internal/imu"
	"github.com/banshee-data/odometry.report/internal/so3"
)

// TuningConfig represents the root configuration for the odometry pipeline.
// Fields omitted from the JSON file fall back to the compiled defaults.
type TuningConfig struct {
	// IMU process noise densities
	GyroNoise      *float64 `json:"gyro_noise,omitempty"`
	AccelNoise     *float64 `json:"accel_noise,omitempty"`
	GyroBiasNoise  *float64 `json:"gyro_bias_noise,omitempty"`
	AccelBiasNoise *float64 `json:"accel_bias_noise,omitempty"`

	// IMU-to-LiDAR extrinsics (rotation row-major)
	ExtrinsicRotation    *[9]float64 `json:"extrinsic_rotation,omitempty"`
	ExtrinsicTranslation *[3]float64 `json:"extrinsic_translation,omitempty"`

	// Initialization params
	InitSampleCount *int  `json:"init_sample_count,omitempty"`
	GravityAlign    *bool `json:"gravity_align,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension; fields omitted from the file retain their defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
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

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*float64{
		"gyro_noise":       c.GyroNoise,
		"accel_noise":      c.AccelNoise,
		"gyro_bias_noise":  c.GyroBiasNoise,
		"accel_bias_noise": c.AccelBiasNoise,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	if c.InitSampleCount != nil && *c.InitSampleCount < 1 {
		return fmt.Errorf("init_sample_count must be >= 1, got %d", *c.InitSampleCount)
	}

	return nil
}

// ProcessorConfig materializes an imu.Config from the tuning values,
// falling back to imu.DefaultConfig for anything unset.
func (c *TuningConfig) ProcessorConfig() imu.Config {
	cfg := imu.DefaultConfig()
	if c.GyroNoise != nil {
		cfg.GyroNoise = *c.GyroNoise
	}
	if c.AccelNoise != nil {
		cfg.AccelNoise = *c.AccelNoise
	}
	if c.GyroBiasNoise != nil {
		cfg.GyroBiasNoise = *c.GyroBiasNoise
	}
	if c.AccelBiasNoise != nil {
		cfg.AccelBiasNoise = *c.AccelBiasNoise
	}
	if c.ExtrinsicRotation != nil {
		cfg.ExtrinsicRot = so3.Mat3(*c.ExtrinsicRotation)
	}
	if c.ExtrinsicTranslation != nil {
		cfg.ExtrinsicTrans = so3.Vec3(*c.ExtrinsicTranslation)
	}
	if c.InitSampleCount != nil {
		cfg.InitSampleCount = *c.InitSampleCount
	}
	if c.GravityAlign != nil {
		cfg.GravityAlign = *c.GravityAlign
	}
	return cfg
}
