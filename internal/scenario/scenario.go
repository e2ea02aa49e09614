// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scenario holds the persisted artifacts around a formulation:
// scenario files with their probabilities and factor maps, factor tables
// and snapshots of solved variable values.
package scenario

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/energiago/internal/system"
)

// probabilityTolerance bounds how far the probabilities of a set may sum
// away from one.
const probabilityTolerance = 1e-9

// Scenario is one realisation of the uncertain inputs. Factors maps a
// "scope.component.aspect" key to multipliers applied to that aspect.
// Theta gives values to parametric symbols by name.
type Scenario struct {
	Name        string
	Probability float64
	Factors     map[string][]float64
	Theta       map[string]float64
}

type entry struct {
	Probability float64              `mapstructure:"probability" yaml:"probability"`
	Factor      map[string][]float64 `mapstructure:"factor" yaml:"factor,omitempty"`
	Theta       map[string]float64   `mapstructure:"theta" yaml:"theta,omitempty"`
}

// Read decodes a scenario file. Scenarios are returned sorted by name.
func Read(r io.Reader) ([]*Scenario, error) {
	var doc map[string]map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty scenario file", ErrScenario)
		}
		return nil, fmt.Errorf("%w: %w", ErrScenario, err)
	}

	out := make([]*Scenario, 0, len(doc))
	for name, raw := range doc {
		var e entry
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &e,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: scenario '%s': %w", ErrScenario, name, err)
		}
		out = append(out, &Scenario{Name: name, Probability: e.Probability, Factors: e.Factor, Theta: e.Theta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ReadFile reads and validates a scenario file.
func ReadFile(path string) ([]*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenarios: %w", err)
	}
	defer f.Close()

	scenarios, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(scenarios); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Write encodes scenarios in the same shape Read accepts.
func Write(w io.Writer, scenarios []*Scenario) error {
	doc := make(map[string]entry, len(scenarios))
	for _, s := range scenarios {
		doc[s.Name] = entry{Probability: s.Probability, Factor: s.Factors, Theta: s.Theta}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode scenarios: %w", err)
	}
	return enc.Close()
}

// Validate checks that the set is non-empty, every probability lies in
// [0, 1] and they sum to one.
func Validate(scenarios []*Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("%w: no scenarios", ErrScenario)
	}
	var sum float64
	for _, s := range scenarios {
		if s.Probability < 0 || s.Probability > 1 || math.IsNaN(s.Probability) {
			return fmt.Errorf("%w: scenario '%s' has probability %g", ErrProbability, s.Name, s.Probability)
		}
		sum += s.Probability
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %g", ErrProbability, sum)
	}
	return nil
}

// SystemFactors turns the factor map into component factors, sorted by key.
func (s *Scenario) SystemFactors() ([]system.Factor, error) {
	return Factors(s.Factors)
}

// Factors parses "scope.component.aspect" keys. The scope may itself
// contain dots; component and aspect may not.
func Factors(m map[string][]float64) ([]system.Factor, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]system.Factor, 0, len(keys))
	for _, k := range keys {
		f, err := parseKey(k)
		if err != nil {
			return nil, err
		}
		f.Multipliers = m[k]
		out = append(out, f)
	}
	return out, nil
}

func parseKey(k string) (system.Factor, error) {
	aspectAt := strings.LastIndex(k, ".")
	if aspectAt <= 0 {
		return system.Factor{}, fmt.Errorf("%w: factor key '%s' is not scope.component.aspect", ErrScenario, k)
	}
	componentAt := strings.LastIndex(k[:aspectAt], ".")
	if componentAt <= 0 || componentAt == aspectAt-1 || aspectAt == len(k)-1 {
		return system.Factor{}, fmt.Errorf("%w: factor key '%s' is not scope.component.aspect", ErrScenario, k)
	}
	return system.Factor{
		Scope:     k[:componentAt],
		Component: k[componentAt+1 : aspectAt],
		Aspect:    k[aspectAt+1:],
	}, nil
}
