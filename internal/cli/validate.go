package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvidh/loom/internal/compiler"
	"github.com/arvidh/loom/internal/hlo"
)

// ValidateReport is the success payload of the validate command.
type ValidateReport struct {
	Module       string `json:"module" yaml:"module"`
	Computations int    `json:"computations" yaml:"computations"`
	Instructions int    `json:"instructions" yaml:"instructions"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <module.cue>",
		Short: "Compile a module and check its structural invariants",
		Long: `Compile a CUE module description and verify the resulting graph:
operand arity per opcode, handle validity, acyclicity, reverse-use edge
consistency and name uniqueness.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// The compiler validates after building, so a compile success already
	// implies a structurally sound graph; compile failures are split into
	// CUE-level and graph-level codes for diagnostics.
	m, err := compiler.CompileFile(path)
	if err != nil {
		formatter.Error(ErrCodeValidate, err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}
	if err := hlo.Validate(m); err != nil {
		formatter.Error(ErrCodeValidate, err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	total := 0
	for _, comp := range m.Computations() {
		total += comp.NumInstructions()
	}
	report := ValidateReport{
		Module:       m.Name(),
		Computations: len(m.Computations()),
		Instructions: total,
	}

	if opts.Format == "text" {
		return formatter.Success(fmt.Sprintf("✓ module %s valid (%d computation(s), %d instruction(s))",
			report.Module, report.Computations, report.Instructions))
	}
	return formatter.Success(report)
}
