// Package config handles converter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/meshconv/pkg/encoding"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// NormalsNone disables normal synthesis; objects without normals then fail
// conversion to STL.
const NormalsNone = "none"

// Config holds all converter settings.
type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Materials  MaterialsConfig  `yaml:"materials"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConversionConfig holds settings for the conversion pipeline.
type ConversionConfig struct {
	STLBinary        bool   `yaml:"stl_binary"`         // Write binary instead of ASCII STL
	Normals          string `yaml:"normals"`            // flat, smooth or none
	RecomputeNormals bool   `yaml:"recompute_normals"`  // Replace normals even when present
	KeepEmptyObjects bool   `yaml:"keep_empty_objects"` // Keep named OBJ objects without faces
	InputEncoding    string `yaml:"input_encoding"`     // Charset of text input
	OutputEncoding   string `yaml:"output_encoding"`    // Charset of text output
}

// MaterialsConfig holds material library settings.
type MaterialsConfig struct {
	Resolve   bool `yaml:"resolve"`    // Load mtllib and check usemtl names
	CacheSize int  `yaml:"cache_size"` // Parsed libraries kept in memory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			STLBinary:        false,
			Normals:          "flat",
			RecomputeNormals: false,
			KeepEmptyObjects: false,
			InputEncoding:    "utf-8",
			OutputEncoding:   "utf-8",
		},
		Materials: MaterialsConfig{
			Resolve:   true,
			CacheSize: 16,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be expressed through yaml types.
func (c *Config) Validate() error {
	if c.Conversion.Normals != NormalsNone {
		if _, err := mesh.ParseNormalMode(c.Conversion.Normals); err != nil {
			return fmt.Errorf("conversion.normals: %w", err)
		}
	}
	if _, err := encoding.Lookup(c.Conversion.InputEncoding); err != nil {
		return fmt.Errorf("conversion.input_encoding: %w", err)
	}
	if _, err := encoding.Lookup(c.Conversion.OutputEncoding); err != nil {
		return fmt.Errorf("conversion.output_encoding: %w", err)
	}
	if c.Materials.Resolve && c.Materials.CacheSize <= 0 {
		return fmt.Errorf("materials.cache_size must be positive, got %d", c.Materials.CacheSize)
	}
	return nil
}

// NormalMode returns the configured synthesis mode. ok is false when
// synthesis is disabled.
func (c *Config) NormalMode() (mode mesh.NormalMode, ok bool) {
	if c.Conversion.Normals == NormalsNone {
		return 0, false
	}
	mode, err := mesh.ParseNormalMode(c.Conversion.Normals)
	return mode, err == nil
}
