package cli

import (
	"github.com/spf13/cobra"

	"github.com/arvidh/loom/internal/compiler"
	"github.com/arvidh/loom/internal/hlo"
)

// PrintReport is the success payload of the print command.
type PrintReport struct {
	Module      string `json:"module" yaml:"module"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Text        string `json:"text" yaml:"text"`
}

// NewPrintCommand creates the print command.
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "print <module.cue>",
		Short:         "Compile a module and render its text form",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runPrint(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	text := hlo.Print(m)
	if opts.Format == "text" {
		return formatter.Success(text)
	}
	return formatter.Success(PrintReport{
		Module:      m.Name(),
		Fingerprint: hlo.Fingerprint(m),
		Text:        text,
	})
}
