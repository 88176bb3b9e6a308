package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"dategen/pkg/dategen"
)

type QuotaConfig struct {
	Valid    int `yaml:"valid"`
	Invalid  int `yaml:"invalid"`
	Boundary int `yaml:"boundary"`
}

// RunConfig is the YAML shape of a single run. Omitted fields keep the
// instance defaults.
type RunConfig struct {
	Instance              string       `yaml:"instance"`
	LocalSearch           bool         `yaml:"local_search"`
	LocalSearchIterations *int         `yaml:"local_search_iterations"`
	Population            int          `yaml:"population"`
	Generations           int          `yaml:"generations"`
	MutationRate          *float64     `yaml:"mutation_rate"`
	ForceFullGenerations  *bool        `yaml:"force_full_generations"`
	ConvergenceThreshold  float64      `yaml:"convergence_threshold"`
	Quota                 *QuotaConfig `yaml:"quota"`
	Seed                  *int64       `yaml:"seed"`
}

type SuiteConfig struct {
	Seed    *int64      `yaml:"seed"`
	Workers int         `yaml:"workers"`
	Report  *bool       `yaml:"report"`
	Runs    []RunConfig `yaml:"runs"`
}

func LoadRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig
	if err := decodeYAMLFile(path, &cfg); err != nil {
		return RunConfig{}, err
	}
	if err := cfg.validate(); err != nil {
		return RunConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func LoadSuiteConfig(path string) (SuiteConfig, error) {
	var cfg SuiteConfig
	if err := decodeYAMLFile(path, &cfg); err != nil {
		return SuiteConfig{}, err
	}
	if cfg.Workers < 0 {
		return SuiteConfig{}, fmt.Errorf("%s: workers must be >= 0", path)
	}
	for i, run := range cfg.Runs {
		if err := run.validate(); err != nil {
			return SuiteConfig{}, fmt.Errorf("%s: runs[%d]: %w", path, i, err)
		}
	}
	return cfg, nil
}

// Request converts the config, using fallbackSeed when none is set.
func (c RunConfig) Request(fallbackSeed int64) dategen.RunRequest {
	req := dategen.RunRequest{
		Instance:              c.Instance,
		LocalSearch:           c.LocalSearch,
		LocalSearchIterations: c.LocalSearchIterations,
		Population:            c.Population,
		Generations:           c.Generations,
		MutationRate:          c.MutationRate,
		ForceFullGenerations:  c.ForceFullGenerations,
		ConvergenceThreshold:  c.ConvergenceThreshold,
		Seed:                  fallbackSeed,
	}
	if c.Seed != nil {
		req.Seed = *c.Seed
	}
	if c.Quota != nil {
		req.Quota = &dategen.Quota{Valid: c.Quota.Valid, Invalid: c.Quota.Invalid, Boundary: c.Quota.Boundary}
	}
	return req
}

func (c RunConfig) validate() error {
	if c.Population < 0 {
		return errors.New("population must be >= 0")
	}
	if c.Generations < 0 {
		return errors.New("generations must be >= 0")
	}
	if c.LocalSearchIterations != nil && *c.LocalSearchIterations < 0 {
		return errors.New("local_search_iterations must be >= 0")
	}
	if c.MutationRate != nil && (math.IsNaN(*c.MutationRate) || *c.MutationRate < 0 || *c.MutationRate > 1) {
		return errors.New("mutation_rate must be in [0, 1]")
	}
	if c.ConvergenceThreshold < 0 || c.ConvergenceThreshold > 100 {
		return errors.New("convergence_threshold must be in [0, 100]")
	}
	if c.Quota != nil && (c.Quota.Valid < 0 || c.Quota.Invalid < 0 || c.Quota.Boundary < 0) {
		return errors.New("quota counts must be >= 0")
	}
	return nil
}

func decodeYAMLFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
