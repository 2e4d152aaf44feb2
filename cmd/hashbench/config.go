package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// scenario is one named benchmark run in a scenario file, grounded on the
// teacher's config.go (Standardize-then-Unmarshal JSONC pattern).
type scenario struct {
	Name            string  `json:"name"`
	Variant         string  `json:"variant"`
	Capacity        int     `json:"capacity"`
	LoadFactor      float64 `json:"loadFactor"`
	Ops             int     `json:"ops"`
	Seed            int64   `json:"seed"`
	Workers         int     `json:"workers"`
	KeyDistribution string  `json:"keyDistribution"`
}

// loadScenarios reads a JSONC (JSON-with-comments) file holding an array of
// scenario objects.
func loadScenarios(path string) ([]scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled, CLI tool
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var scenarios []scenario
	if err := json.Unmarshal(standardized, &scenarios); err != nil {
		return nil, fmt.Errorf("invalid scenario list: %w", err)
	}

	for i := range scenarios {
		if scenarios[i].Ops == 0 {
			scenarios[i].Ops = 100_000
		}

		if scenarios[i].Seed == 0 {
			scenarios[i].Seed = 1
		}

		if scenarios[i].Workers == 0 {
			scenarios[i].Workers = 1
		}

		if scenarios[i].KeyDistribution == "" {
			scenarios[i].KeyDistribution = "random"
		}
	}

	return scenarios, nil
}

// runScenarioFile loads and runs every scenario in path, printing results in
// sequence.
func runScenarioFile(path string) error {
	scenarios, err := loadScenarios(path)
	if err != nil {
		return err
	}

	for _, s := range scenarios {
		result, err := runOneBench(benchOptions{
			variant:         s.Variant,
			capacity:        s.Capacity,
			loadFactor:      s.LoadFactor,
			ops:             s.Ops,
			seed:            s.Seed,
			workers:         s.Workers,
			keyDistribution: s.KeyDistribution,
		})
		if err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}

		printResult(os.Stdout, s.Name, result)
	}

	return nil
}
