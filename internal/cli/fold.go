package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arvidh/loom/internal/compiler"
	"github.com/arvidh/loom/internal/hlo"
	"github.com/arvidh/loom/internal/selectfold"
	"github.com/arvidh/loom/internal/store"
)

// FoldOptions holds flags for the fold command.
type FoldOptions struct {
	*RootOptions
	TraceDB string // record decisions to this sqlite database
	Print   bool   // print the rewritten module text
}

// FoldReport is the success payload of the fold command.
type FoldReport struct {
	Module      string               `json:"module" yaml:"module"`
	ModuleID    string               `json:"module_id" yaml:"module_id"`
	Fingerprint string               `json:"fingerprint" yaml:"fingerprint"`
	Changed     bool                 `json:"changed" yaml:"changed"`
	Rewrites    []selectfold.Rewrite `json:"rewrites,omitempty" yaml:"rewrites,omitempty"`
	Text        string               `json:"text,omitempty" yaml:"text,omitempty"`
}

// NewFoldCommand creates the fold command.
func NewFoldCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FoldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fold <module.cue>",
		Short: "Run the collective select folding pass on a module",
		Long: `Compile a CUE module description, run the collective select
folding pass over it and report what changed.

Examples:
  loom fold module.cue
  loom fold module.cue --print
  loom fold module.cue --trace decisions.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFold(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TraceDB, "trace", "", "record fold decisions to this database")
	cmd.Flags().BoolVar(&opts.Print, "print", false, "include the rewritten module text in the output")

	return cmd
}

func runFold(opts *FoldOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := compiler.CompileFile(path)
	if err != nil {
		formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compile failed", err)
	}
	formatter.VerboseLog("compiled module %s (%d computation(s))", m.Name(), len(m.Computations()))

	result, err := selectfold.Fold(m)
	if err != nil {
		formatter.Error(ErrCodePass, err.Error(), nil)
		return WrapExitError(ExitFailure, "pass failed", err)
	}

	if opts.TraceDB != "" {
		if err := recordRun(m, result, opts.TraceDB); err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "trace recording failed", err)
		}
		formatter.VerboseLog("recorded %d decision row(s) to %s", max(len(result.Rewrites), 1), opts.TraceDB)
	}

	report := FoldReport{
		Module:      m.Name(),
		ModuleID:    m.ID(),
		Fingerprint: hlo.Fingerprint(m),
		Changed:     result.Changed,
		Rewrites:    result.Rewrites,
	}
	if opts.Print {
		report.Text = hlo.Print(m)
	}

	if opts.Format == "text" {
		return formatter.Success(foldReportText(report))
	}
	return formatter.Success(report)
}

func recordRun(m *hlo.Module, result selectfold.Result, path string) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.RecordRun(context.Background(), m, result)
}

func foldReportText(report FoldReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s: changed=%t (%d fold(s))\n", report.Module, report.Changed, len(report.Rewrites))
	for _, rw := range report.Rewrites {
		fmt.Fprintf(&b, "  %s/%s: select %s evaluated %t, operand now %s\n",
			rw.Computation, rw.Instruction, rw.Select, rw.Predicate, rw.NewOperand)
	}
	fmt.Fprintf(&b, "fingerprint %s", report.Fingerprint)
	if report.Text != "" {
		fmt.Fprintf(&b, "\n\n%s", report.Text)
	}
	return b.String()
}
