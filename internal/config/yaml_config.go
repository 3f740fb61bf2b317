package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Holds mappings that are awkward to express as env vars.
type YAMLConfig struct {
	// Destinations maps raw exit_destination strings to category labels.
	Destinations map[string]string `yaml:"destinations"`
	Warm         []WarmPreset      `yaml:"warm"`
}

// WarmPreset is one chart the cache warmer requests.
type WarmPreset struct {
	Chart    string `yaml:"chart"` // "ma" or "pie"
	M        int    `yaml:"m"`
	DaysBack int    `yaml:"days_back,omitempty"` // ma only
}

// Warm preset chart names.
const (
	WarmChartMA  = "ma"
	WarmChartPie = "pie"
)

// DefaultWarmPresets are used when the YAML file lists none.
var DefaultWarmPresets = []WarmPreset{
	{Chart: WarmChartPie, M: 90},
	{Chart: WarmChartPie, M: 365},
	{Chart: WarmChartMA, M: 90, DaysBack: 365},
	{Chart: WarmChartMA, M: 365, DaysBack: 365},
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads the YAML configuration at path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range cfg.Warm {
		cfg.Warm[i].Chart = strings.ToLower(strings.TrimSpace(cfg.Warm[i].Chart))
		if err := cfg.Warm[i].validate(); err != nil {
			return nil, fmt.Errorf("warm[%d]: %w", i, err)
		}
	}

	return &cfg, nil
}

func (p WarmPreset) validate() error {
	switch p.Chart {
	case WarmChartPie:
		if p.DaysBack != 0 {
			return fmt.Errorf("days_back is only valid for %q presets", WarmChartMA)
		}
	case WarmChartMA:
		if p.DaysBack < 0 {
			return fmt.Errorf("days_back must be >= 0, got %d", p.DaysBack)
		}
	default:
		return fmt.Errorf("chart must be %q or %q, got %q", WarmChartMA, WarmChartPie, p.Chart)
	}
	return nil
}

// GetDestinationAliases returns the raw destination to category label map.
func (c *YAMLConfig) GetDestinationAliases() map[string]string {
	if c == nil {
		return nil
	}
	return c.Destinations
}

// GetWarmPresets returns the configured presets, or DefaultWarmPresets.
func (c *YAMLConfig) GetWarmPresets() []WarmPreset {
	if c == nil || len(c.Warm) == 0 {
		return DefaultWarmPresets
	}
	return c.Warm
}
