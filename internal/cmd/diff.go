package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/modpipe/internal/output"
	"github.com/opmodel/modpipe/internal/transition"
)

// baseLabel names the untransitioned side of a diff.
const baseLabel = "base"

type diffOptions struct {
	transition string
	reference  string
	color      bool
}

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show what a transition changes",
		Long: `Show how a transition changes the module loaded from a source.

The source is processed twice, once with the base context and once with
the named transition, and the two modules are compared with a semantic
YAML diff (via dyff).

Examples:
  # Compare the base module with the "client" transition
  modpipe diff src/page.cue --transition client`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.transition, "transition", "t", "",
		"Name of the configured transition to compare against")
	cmd.Flags().StringVar(&opts.reference, "reference", "static",
		"Reference type passed to the loader: entry, static, dynamic, internal")
	cmd.Flags().BoolVar(&opts.color, "color", output.IsTTY(),
		"Colorize the diff")
	_ = cmd.MarkFlagRequired("transition")

	return cmd
}

func runDiff(cmd *cobra.Command, path string, opts diffOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(opts.reference)
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.selectTransition(opts.transition, false)
	if err != nil {
		printError("selecting transition", err)
		return exitErrorFor(err, true)
	}

	base, err := s.run(ctx, "", transition.None, path)
	if err != nil {
		printError("processing "+path, err)
		return exitErrorFor(err, true)
	}
	transitioned, err := s.run(ctx, opts.transition, t, path)
	if err != nil {
		printError("processing "+path+" with "+opts.transition, err)
		return exitErrorFor(err, true)
	}

	from, err := output.RecordYAML(output.NewModuleRecord(path, "", base, nil))
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("encoding base module: %w", err)}
	}
	to, err := output.RecordYAML(output.NewModuleRecord(path, opts.transition, transitioned, nil))
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("encoding transitioned module: %w", err)}
	}

	diff, err := output.DiffYAML(baseLabel, from, opts.transition, to, opts.color)
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("comparing modules: %w", err)}
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderModuleDiff(path, baseLabel, opts.transition, diff))
	return nil
}
