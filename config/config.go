// Package config holds process-wide decoder and server options loaded from YAML.
package config

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`
}

type Config struct {
	// ColorTolerance is the max per-channel difference for float COLOR_0
	// values to still count as one uniform colour.
	ColorTolerance float64 `yaml:"color_tolerance"`
	// HalfFloatDeinterlace reads interleaved UNSIGNED_SHORT data as binary16.
	HalfFloatDeinterlace bool `yaml:"half_float_deinterlace"`
	// SupportedExtensions may appear in extensionsRequired without failing
	// the load. Decoders installed at runtime add their own.
	SupportedExtensions []string `yaml:"supported_extensions"`
	// CodecWasm is a draco decoder module, StreamWasm a meshoptimizer build.
	CodecWasm  string `yaml:"codec_wasm"`
	StreamWasm string `yaml:"stream_wasm"`
	Server     Server `yaml:"server"`
}

func Default() *Config {
	return &Config{
		ColorTolerance: 1e-6,
		SupportedExtensions: []string{
			"KHR_mesh_quantization",
			"KHR_materials_unlit",
			"KHR_materials_emissive_strength",
			"KHR_texture_transform",
			"KHR_materials_pbrSpecularGlossiness",
		},
		Server: Server{
			Addr: ":8000",
			Dir:  ".",
		},
	}
}

// Parse overlays YAML data on top of Default.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if c.ColorTolerance < 0 {
		return nil, errors.Errorf("color_tolerance must not be negative, got %v", c.ColorTolerance)
	}
	return c, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %q", path)
	}
	return Parse(data)
}

// Supports reports whether ext is listed in SupportedExtensions.
func (c *Config) Supports(ext string) bool {
	for _, e := range c.SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

var (
	currentMu sync.RWMutex
	current   = Default()
)

func Get() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

func Set(c *Config) {
	if c == nil {
		c = Default()
	}
	currentMu.Lock()
	current = c
	currentMu.Unlock()
}
