package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arvidh/loom/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DB       string
	ModuleID string
}

// TraceReport is the success payload of the trace command.
type TraceReport struct {
	Decisions []store.Decision `json:"decisions" yaml:"decisions"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List recorded fold decisions",
		Long: `List the fold decisions recorded by earlier pass runs.

Examples:
  loom trace --db decisions.db
  loom trace --db decisions.db --module 7f3f...
  loom trace --db decisions.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "decision database path (required)")
	cmd.Flags().StringVar(&opts.ModuleID, "module", "", "only decisions for this module id")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open trace database failed", err)
	}
	defer s.Close()

	decisions, err := s.ListDecisions(context.Background(), opts.ModuleID)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list decisions failed", err)
	}

	if opts.Format == "text" {
		return formatter.Success(traceText(decisions))
	}
	return formatter.Success(TraceReport{Decisions: decisions})
}

func traceText(decisions []store.Decision) string {
	if len(decisions) == 0 {
		return "no decisions recorded"
	}
	var b strings.Builder
	for i, d := range decisions {
		if i > 0 {
			b.WriteString("\n")
		}
		site := d.Outcome
		if d.Instruction != "" {
			site = fmt.Sprintf("%s/%s %s", d.Computation, d.Instruction, d.Outcome)
		}
		fmt.Fprintf(&b, "#%d %s [%s] %s", d.Seq, d.Pass, d.ModuleID, site)
		if d.Detail != "" {
			fmt.Fprintf(&b, ": %s", d.Detail)
		}
	}
	return b.String()
}
