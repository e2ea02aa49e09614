package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/energiago/internal/ctxlog"
)

// ErrInvalidModel is returned when a model refers to things it never declares.
var ErrInvalidModel = errors.New("config: invalid model")

// Validate checks the model's cross references: level lengths, location
// parents, linkage ends and resources used by components. All problems are
// reported together.
func (m *Model) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	if m.Horizon == nil || len(m.Horizon.Levels) == 0 {
		errs = append(errs, "no horizon levels declared")
	} else {
		for _, l := range m.Horizon.Levels {
			if l.Length <= 0 {
				errs = append(errs, fmt.Sprintf("level '%s': length must be positive, got %d", l.Name, l.Length))
			}
		}
	}
	if m.Network == "" {
		errs = append(errs, "no network declared")
	}

	locations := make(map[string]bool, len(m.Locations))
	for _, l := range m.Locations {
		if locations[l.Name] {
			errs = append(errs, fmt.Sprintf("location '%s' declared twice", l.Name))
		}
		locations[l.Name] = true
	}
	for _, l := range m.Locations {
		if l.Parent != "" && l.Parent != m.Network && !locations[l.Parent] {
			errs = append(errs, fmt.Sprintf("location '%s': unknown parent '%s'", l.Name, l.Parent))
		}
		for _, member := range l.Members {
			if !locations[member] {
				errs = append(errs, fmt.Sprintf("location '%s': unknown member '%s'", l.Name, member))
			}
		}
	}
	for _, lk := range m.Linkages {
		for _, end := range []string{lk.Source, lk.Sink} {
			if !locations[end] {
				errs = append(errs, fmt.Sprintf("linkage '%s-%s': unknown location '%s'", lk.Source, lk.Sink, end))
			}
		}
	}

	resources := make(map[string]bool, len(m.Resources))
	names := make(map[string]bool)
	component := func(kind, name string) {
		if names[name] {
			errs = append(errs, fmt.Sprintf("%s '%s': component name already used", kind, name))
		}
		names[name] = true
	}
	for _, r := range m.Resources {
		component("resource", r.Name)
		resources[r.Name] = true
	}
	for _, p := range m.Processes {
		component("process", p.Name)
		if len(p.Conversion) == 0 {
			logger.Warn("Process converts no resources.", "process", p.Name)
		}
		for r := range p.Conversion {
			if !resources[r] {
				errs = append(errs, fmt.Sprintf("process '%s': unknown resource '%s'", p.Name, r))
			}
		}
	}
	for _, s := range m.Storages {
		component("storage", s.Name)
		if !resources[s.Resource] {
			errs = append(errs, fmt.Sprintf("storage '%s': unknown resource '%s'", s.Name, s.Resource))
		}
	}
	for _, t := range m.Transports {
		component("transport", t.Name)
		if !resources[t.Resource] {
			errs = append(errs, fmt.Sprintf("transport '%s': unknown resource '%s'", t.Name, t.Resource))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidModel, strings.Join(errs, "\n- "))
	}
	return nil
}
