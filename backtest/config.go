package backtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"papertrade/strategy"
)

// YAMLConfig 回測配置文件結構
type YAMLConfig struct {
	Backtest struct {
		Months      int      `yaml:"months"`
		InitialCash float64  `yaml:"initial_cash"`
		Symbols     []string `yaml:"symbols"`
	} `yaml:"backtest"`

	Strategy struct {
		Name string `yaml:"name"`
	} `yaml:"strategy"`
}

// RunConfig drives a Runner invocation.
type RunConfig struct {
	Months      int
	InitialCash float64
	Symbols     []string
	Strategy    string
}

// DefaultRunConfig returns the baseline a config file overrides.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Months:      12,
		InitialCash: 1_000_000,
		Strategy:    strategy.MACross,
	}
}

// LoadRunConfig reads a YAML run config, applying defaults for
// omitted fields and rejecting unknown strategy names up front.
func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := DefaultRunConfig()
	if yc.Backtest.Months > 0 {
		cfg.Months = yc.Backtest.Months
	}
	if yc.Backtest.InitialCash > 0 {
		cfg.InitialCash = yc.Backtest.InitialCash
	}
	for _, s := range yc.Backtest.Symbols {
		if s != "" {
			cfg.Symbols = append(cfg.Symbols, s)
		}
	}
	if yc.Strategy.Name != "" {
		if !strategy.Valid(yc.Strategy.Name) {
			return RunConfig{}, fmt.Errorf("unknown strategy.name: %s", yc.Strategy.Name)
		}
		cfg.Strategy = yc.Strategy.Name
	}

	return cfg, nil
}
