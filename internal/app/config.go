package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver/simplex"
)

// ErrConfig is returned by NewConfig for invalid settings.
var ErrConfig = errors.New("app: invalid configuration")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPaths []string // hcl files or directories

	LogFormat string
	LogLevel  string

	Solver    string
	Options   map[string]string
	Objective string
	Families  []string
	BigM      float64

	Workers     int
	Steps       int
	Scenarios   string // scenario yaml
	Factors     string // factor csv
	SnapshotDB  string
	MetricsFile string
}

// NewConfig applies defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	var errs []string

	if len(cfg.ModelPaths) == 0 {
		errs = append(errs, "at least one model path is required")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "log-format must be 'text' or 'json'")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log-level must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.Solver == "" {
		cfg.Solver = simplex.Name
	}
	if cfg.Objective == "" {
		cfg.Objective = string(program.ObjectiveCost)
	}
	switch program.ObjectiveKind(cfg.Objective) {
	case program.ObjectiveCost, program.ObjectiveEmission:
	default:
		errs = append(errs, fmt.Sprintf("objective must be '%s' or '%s'", program.ObjectiveCost, program.ObjectiveEmission))
	}
	if _, err := formulation.NewFamilies(cfg.Families...); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.BigM < 0 {
		errs = append(errs, "big-m must be positive")
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Steps < 0 {
		errs = append(errs, "steps must not be negative")
	}
	if cfg.Steps > 1 && cfg.Scenarios != "" {
		errs = append(errs, "rolling steps and scenario ensembles cannot be combined")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n- %s", ErrConfig, strings.Join(errs, "\n- "))
	}
	return &cfg, nil
}
