// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/ctxlog"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL model loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their blocks into one
// model. Blocks may be split across files in any order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .hcl files found in %v", ErrModel, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	decodeCtx := evalContext(nil)
	var merged fileRoot
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(f.Body, decodeCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		merge(&merged, &root)
	}

	params, err := l.parameters(ctx, merged.Parameters)
	if err != nil {
		return nil, err
	}
	model, err := l.translate(ctx, &merged, evalContext(params))
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"locations", len(model.Locations),
		"resources", len(model.Resources),
		"processes", len(model.Processes),
		"storages", len(model.Storages),
		"transports", len(model.Transports),
	)
	return model, nil
}

func merge(dst, src *fileRoot) {
	dst.Horizons = append(dst.Horizons, src.Horizons...)
	dst.Networks = append(dst.Networks, src.Networks...)
	dst.Locations = append(dst.Locations, src.Locations...)
	dst.Linkages = append(dst.Linkages, src.Linkages...)
	dst.Parameters = append(dst.Parameters, src.Parameters...)
	dst.Resources = append(dst.Resources, src.Resources...)
	dst.Processes = append(dst.Processes, src.Processes...)
	dst.Storages = append(dst.Storages, src.Storages...)
	dst.Transports = append(dst.Transports, src.Transports...)
}

// parameters evaluates `parameter` blocks. They may use the marker
// functions but not each other.
func (l *Loader) parameters(ctx context.Context, blocks []*parameterBlock) (map[string]cty.Value, error) {
	params := make(map[string]cty.Value, len(blocks))
	evalCtx := evalContext(nil)
	for _, p := range blocks {
		if _, dup := params[p.Name]; dup {
			return nil, fmt.Errorf("%w: parameter '%s' declared twice", ErrModel, p.Name)
		}
		v, diags := p.Value.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parameter '%s': %w", p.Name, diags)
		}
		params[p.Name] = v
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for n := range params {
			names = append(names, n)
		}
		sort.Strings(names)
		ctxlog.FromContext(ctx).Debug("Evaluated parameters.", "names", names)
	}
	return params, nil
}

// findAllHCLFiles walks all given paths and returns a flat, sorted list of
// the .hcl files found. Missing paths are skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
