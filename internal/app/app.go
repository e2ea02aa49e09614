package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/metrics"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
	"github.com/specialistvlad/energiago/internal/solver/simplex"
	"github.com/specialistvlad/energiago/internal/system"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	solvers *solver.Registry
	metrics *metrics.Recorder
	system  *system.System
}

// NewApp is the constructor for the main application. Results are written
// to outW and logs to logW. The built-in simplex adapter is always
// registered next to any extra adapters.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, adapters ...solver.Adapter) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	solvers, err := solver.NewRegistry(append([]solver.Adapter{simplex.New()}, adapters...)...)
	if err != nil {
		return nil, err
	}
	rec := metrics.New()
	solvers.Observe(rec)
	logger.Debug("Solvers registered.", "names", solvers.Names())

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		solvers: solvers,
		metrics: rec,
	}, nil
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Solvers returns the adapter registry.
func (a *App) Solvers() *solver.Registry { return a.solvers }

// Metrics returns the application's recorder.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// System returns the built system, nil before Load.
func (a *App) System() *system.System { return a.system }

// Load reads the model files and builds the energy system.
func (a *App) Load(ctx context.Context) error {
	ctx = a.Context(ctx)
	m, err := a.loader.Load(ctx, a.config.ModelPaths...)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	sys, err := system.Build(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to build system: %w", err)
	}
	a.system = sys
	a.logger.Debug("System built.", "components", len(sys.Components), "leaves", len(sys.Forest.Leaves()))
	return nil
}

// options returns the pipeline options shared by every formulation.
func (a *App) options(name string, ovs []formulation.Override) []formulation.Option {
	opts := []formulation.Option{
		formulation.WithName(name),
		formulation.WithRecorder(a.metrics),
		formulation.WithOverrides(ovs...),
	}
	if a.config.BigM > 0 {
		opts = append(opts, formulation.WithBigM(a.config.BigM))
	}
	return opts
}

func (a *App) objective() program.ObjectiveKind {
	return program.ObjectiveKind(a.config.Objective)
}

// formulate builds one READY formulation with the given overrides.
func (a *App) formulate(ctx context.Context, name string, ovs []formulation.Override) (*formulation.Formulation, error) {
	if a.system == nil {
		return nil, fmt.Errorf("%w: model not loaded", formulation.ErrState)
	}
	s := a.system
	return formulation.Formulate(ctx, s.Horizon, s.Forest, s.Components, a.config.Families, a.objective(), a.options(name, ovs)...)
}

// pipeline returns a COMPONENTS_REGISTERED pipeline for rolling runs.
func (a *App) pipeline(ctx context.Context, name string, ovs []formulation.Override) (*formulation.Pipeline, error) {
	if a.system == nil {
		return nil, fmt.Errorf("%w: model not loaded", formulation.ErrState)
	}
	p := formulation.New(a.system.Horizon, a.system.Forest, a.options(name, ovs)...)
	for _, c := range a.system.Components {
		if _, err := p.Register(ctx, c); err != nil {
			return nil, err
		}
	}
	return p, nil
}
