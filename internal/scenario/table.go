// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scenario

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReadTable reads a factor table: a CSV with one "scope.component.aspect"
// column per factor and one row per time index.
func ReadTable(r io.Reader) (map[string][]float64, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenario, df.Err)
	}

	out := make(map[string][]float64, df.Ncol())
	for _, name := range df.Names() {
		if _, err := parseKey(name); err != nil {
			return nil, err
		}
		values := df.Col(name).Float()
		for i, v := range values {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: column '%s' row %d is not a number", ErrScenario, name, i+1)
			}
		}
		out[name] = values
	}
	return out, nil
}

// ReadTableFile reads a factor table from disk.
func ReadTableFile(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open factors: %w", err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
