package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/energiago/internal/app"
	"github.com/specialistvlad/energiago/internal/hcl"
	"github.com/specialistvlad/energiago/internal/solver"
)

// Exit codes returned through ExitError.
const (
	CodeUsage = 2
	CodeSolve = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags are shared by every subcommand.
type flags struct {
	logFormat   string
	logLevel    string
	solver      string
	options     map[string]string
	workers     int
	snapshotDB  string
	metricsFile string
	families    []string
	objective   string
	scenarios   string
	factors     string
	bigM        float64
	steps       int
}

// NewRootCommand builds the energiago command tree. Results go to the
// command's output stream and logs to logW.
func NewRootCommand(logW io.Writer) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "energiago",
		Short: "Declarative energy system optimization models",
		Long: "energiago reads an energy system declared in HCL files, resolves every\n" +
			"attribute to a parameter or a decision variable on its time and space\n" +
			"indices, and formulates and solves the resulting optimization problem.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unknown command '%s' for '%s'", errUsage, args[0], cmd.CommandPath())
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: CodeUsage, Message: err.Error()}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.solver, "solver", "", "Solver adapter to use.")
	pf.StringToStringVar(&f.options, "option", nil, "Solver option as key=value, may be repeated.")
	pf.IntVar(&f.workers, "workers", 1, "Number of scenarios solved concurrently.")
	pf.StringVar(&f.snapshotDB, "snapshot-db", "", "SQLite file that solved values are saved to.")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run.")
	pf.StringSliceVar(&f.families, "families", nil, "Constraint families to generate. Default is all.")
	pf.StringVar(&f.objective, "objective", "cost", "Objective kind. Options: 'cost' or 'emission'.")
	pf.StringVar(&f.scenarios, "scenarios", "", "Scenario YAML file for an ensemble run.")
	pf.StringVar(&f.factors, "factors", "", "CSV table of factors applied to every scenario.")
	pf.Float64Var(&f.bigM, "big-m", 0, "Big-M constant for free upper bounds. 0 keeps the default.")
	pf.IntVar(&f.steps, "steps", 0, "Number of rolling horizon steps.")

	cmd.AddCommand(
		newSolveCommand(f, logW),
		newInspectCommand(f, logW),
		newExportCommand(f, logW),
	)
	return cmd
}

// Execute runs the command tree on args and maps failures to ExitErrors.
func Execute(ctx context.Context, outW, logW io.Writer, args []string) error {
	root := NewRootCommand(logW)
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(outW)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	var ese *solver.ExternalSolveError
	switch {
	case errors.As(err, &ese):
		return &ExitError{Code: CodeSolve, Message: err.Error()}
	case errors.Is(err, app.ErrConfig), errors.Is(err, errUsage):
		return &ExitError{Code: CodeUsage, Message: err.Error()}
	}
	return err
}

var errUsage = errors.New("usage")

func modelArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s requires at least one model path", errUsage, cmd.CommandPath())
	}
	return nil
}

// load validates the flags and returns an app with the model loaded.
func load(cmd *cobra.Command, f *flags, logW io.Writer, paths []string) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		ModelPaths:  paths,
		LogFormat:   f.logFormat,
		LogLevel:    f.logLevel,
		Solver:      f.solver,
		Options:     f.options,
		Objective:   f.objective,
		Families:    f.families,
		BigM:        f.bigM,
		Workers:     f.workers,
		Steps:       f.steps,
		Scenarios:   f.scenarios,
		Factors:     f.factors,
		SnapshotDB:  f.snapshotDB,
		MetricsFile: f.metricsFile,
	})
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(cmd.OutOrStdout(), logW, cfg, hcl.NewLoader())
	if err != nil {
		return nil, err
	}
	if err := a.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

func newSolveCommand(f *flags, logW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "solve MODEL_PATH...",
		Short: "Formulate and solve the model",
		Args:  modelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, f, logW, args)
			if err != nil {
				return err
			}
			_, err = a.Run(cmd.Context())
			return err
		},
	}
}

func newInspectCommand(f *flags, logW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect MODEL_PATH...",
		Short: "Print the size of the formulated problem without solving it",
		Args:  modelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, f, logW, args)
			if err != nil {
				return err
			}
			return a.Inspect(cmd.Context())
		},
	}
}

func newExportCommand(f *flags, logW io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export MODEL_PATH...",
		Short: "Write the formulated problem as an LP file",
		Args:  modelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, f, logW, args)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return a.Export(cmd.Context(), cmd.OutOrStdout())
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := a.Export(cmd.Context(), file); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "LP file to write. Default is standard output.")
	return cmd
}
