package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fanoutConfig struct {
	Name     string `yaml:"name"`
	Effects  int    `yaml:"effects"`
	Watchers int    `yaml:"watchers"`
}

type scenarioConfig struct {
	Widths  []int          `yaml:"widths"`
	Heights []int          `yaml:"heights"`
	Iters   int            `yaml:"iters"`
	Fanouts []fanoutConfig `yaml:"fanouts"`
}

func defaultConfig() *scenarioConfig {
	return &scenarioConfig{
		Widths:  []int{1, 10, 100},
		Heights: []int{1, 10, 100},
		Iters:   100,
		Fanouts: []fanoutConfig{
			{Name: "single effect", Effects: 1},
			{Name: "wide effects", Effects: 1_000},
			{Name: "raw watchers", Watchers: 1_000},
			{Name: "mixed", Effects: 500, Watchers: 500},
		},
	}
}

// loadConfig reads a scenario file. Fields left out of the file keep their
// defaults, and a missing file means all defaults.
func loadConfig(path string) (*scenarioConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}

	if cfg.Iters <= 0 {
		return nil, fmt.Errorf("iters must be positive, got %d", cfg.Iters)
	}
	for _, f := range cfg.Fanouts {
		if f.Effects < 0 || f.Watchers < 0 {
			return nil, fmt.Errorf("fanout %q: counts must not be negative", f.Name)
		}
	}
	return cfg, nil
}
